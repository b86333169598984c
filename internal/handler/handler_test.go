package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry/internal/service"
	"laundry/internal/session"
)

var orderColumns = []string{"id", "client_id", "items", "total_items", "status", "created_at"}

type testServer struct {
	router http.Handler
	mock   sqlmock.Sqlmock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cred, err := service.NewAdminCredential("admin", "admin123", "")
	require.NoError(t, err)

	adminSvc := service.NewAdminService(cred, session.NewMemoryStore(), []byte("handler-test-secret-0123456789ab"), time.Hour)
	router := NewRouter(
		RouterConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			Cookie:         CookieConfig{Name: "sid", TTL: time.Hour},
		},
		service.NewAuthService(db),
		adminSvc,
		service.NewOrderService(db, adminSvc, nil),
	)

	return &testServer{router: router, mock: mock}
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("admin login did not set a session cookie")
	return nil
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestRegisterHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM clients`)).WillReturnError(sql.ErrNoRows)
		s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO clients`)).
			WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		s.mock.ExpectCommit()

		rec := s.do(http.MethodPost, "/api/register", `{"username":"alice","email":"alice@example.com","password":"pw"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"user registered successfully"}`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM clients`)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		s.mock.ExpectRollback()

		rec := s.do(http.MethodPost, "/api/register", `{"username":"alice","email":"alice@example.com","password":"pw"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"username or email already exists"}`, rec.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/api/register", `{"username":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("long password", func(t *testing.T) {
		s := newTestServer(t)

		body := `{"username":"alice","email":"alice@example.com","password":"` + strings.Repeat("p", 73) + `"}`
		rec := s.do(http.MethodPost, "/api/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"password must be at most 72 bytes"}`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("invalid json", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/api/register", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure hides detail", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		rec := s.do(http.MethodPost, "/api/register", `{"username":"alice","email":"alice@example.com","password":"pw"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"failed to register user"}`, rec.Body.String())
	})
}

func TestLoginHandler(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, username, email, password_hash FROM clients`)).
		WithArgs("mallory").
		WillReturnError(sql.ErrNoRows)
	s.mock.ExpectRollback()

	rec := s.do(http.MethodPost, "/api/login", `{"username":"mallory","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid username or password"}`, rec.Body.String())
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestAdminSessionFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/admin/check_session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"logged_in":false}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/admin/login", `{"username":"admin","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = s.do(http.MethodPost, "/api/admin/login", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cookie := s.adminCookie(t)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)

	rec = s.do(http.MethodGet, "/api/admin/check_session", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logged_in":true}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/admin/logout", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"logout successful"}`, rec.Body.String())
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "sid", cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)

	// the old cookie no longer works
	rec = s.do(http.MethodGet, "/api/admin/check_session", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// logging out without a session is fine
	rec = s.do(http.MethodPost, "/api/admin/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHandlers(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("list all requires admin", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/api/orders", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized access"}`, rec.Body.String())

		rec = s.do(http.MethodGet, "/api/orders", "", &http.Cookie{Name: "sid", Value: "forged"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("list all as admin", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.adminCookie(t)

		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, client_id, items, total_items, status, created_at`)).
			WillReturnRows(sqlmock.NewRows(orderColumns).
				AddRow(7, "alice", []byte(`[{"name":"shirt","quantity":2}]`), 2, "Washing", created))
		s.mock.ExpectRollback()

		rec := s.do(http.MethodGet, "/api/orders", "", cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{
			"id": 7,
			"client_id": "alice",
			"items": [{"name":"shirt","quantity":2}],
			"total_items": 2,
			"status": "Washing",
			"created_at": "2024-06-01T12:00:00Z"
		}]`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("create", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders`)).
			WithArgs("alice", `[{"name":"shirt"}]`, 2, "Received").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		s.mock.ExpectCommit()

		rec := s.do(http.MethodPost, "/api/orders", `{"clientId":"alice","items":[{"name":"shirt"}],"totalItems":2}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"order created successfully"}`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("create without items", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/api/orders", `{"clientId":"alice","items":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"client ID and items are required"}`, rec.Body.String())
	})

	t.Run("client orders empty", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`WHERE client_id = $1`)).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows(orderColumns))
		s.mock.ExpectRollback()

		rec := s.do(http.MethodGet, "/api/orders/client/bob", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("client orders storage failure", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(regexp.QuoteMeta(`WHERE client_id = $1`)).WillReturnError(errors.New("boom"))
		s.mock.ExpectRollback()

		rec := s.do(http.MethodGet, "/api/orders/client/bob", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"failed to fetch client orders"}`, rec.Body.String())
	})
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	t.Run("non-numeric id", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPut, "/api/orders/abc/status", `{"status":"Done"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthorized before validation", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPut, "/api/orders/1/status", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("malformed body without session", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPut, "/api/orders/1/status", `{"status": 5}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized access"}`, rec.Body.String())
	})

	t.Run("malformed body as admin", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.adminCookie(t)

		for _, body := range []string{`{"status": 5}`, `{`, ``} {
			rec := s.do(http.MethodPut, "/api/orders/1/status", body, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String(), body)
		}
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("missing status", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.adminCookie(t)

		rec := s.do(http.MethodPut, "/api/orders/1/status", `{}`, cookie)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"new status is required"}`, rec.Body.String())
	})

	t.Run("updated", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.adminCookie(t)

		s.mock.ExpectBegin()
		s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET status = $1 WHERE id = $2`)).
			WithArgs("Ready", int64(12)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectCommit()

		rec := s.do(http.MethodPut, "/api/orders/12/status", `{"status":"Ready"}`, cookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"order status updated successfully"}`, rec.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})
}

func TestCORSAllowsCredentials(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardReflectsOrigin(t *testing.T) {
	h := cors.Handler(corsOptions([]string{"*"}))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "http://shop.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
