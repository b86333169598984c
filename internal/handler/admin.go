package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"laundry/internal/mw"
	"laundry/internal/service"
)

// CookieConfig describes the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c CookieConfig) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) expired() *http.Cookie {
	cookie := c.session("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func AdminLoginHandler(adminSvc *service.AdminService, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		token, err := adminSvc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeServiceError(w, r, err, "failed to login")
			return
		}

		http.SetCookie(w, cookie.session(token))
		writeMessage(w, http.StatusOK, "admin login successful")
	}
}

func AdminLogoutHandler(adminSvc *service.AdminService, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminSvc.Logout(r.Context(), mw.SessionToken(r.Context()))

		http.SetCookie(w, cookie.expired())
		writeMessage(w, http.StatusOK, "logout successful")
	}
}

type sessionResponse struct {
	LoggedIn bool `json:"logged_in"`
}

func CheckSessionHandler(adminSvc *service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !adminSvc.CheckSession(r.Context(), mw.SessionToken(r.Context())) {
			writeJSON(w, http.StatusUnauthorized, sessionResponse{LoggedIn: false})
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: true})
	}
}
