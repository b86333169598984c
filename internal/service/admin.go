package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"laundry/internal/metrics"
	"laundry/internal/session"
)

type SessionStore interface {
	Save(sess session.Session)
	Get(id string) (session.Session, bool)
	Delete(id string)
}

// AdminCredential is the single admin identity, supplied at startup.
type AdminCredential struct {
	Username     string
	PasswordHash []byte
}

// NewAdminCredential builds a credential from either a bcrypt hash or, when
// the hash is empty, a plain password that is hashed here.
func NewAdminCredential(username, password, passwordHash string) (AdminCredential, error) {
	if username == "" {
		return AdminCredential{}, errors.New("admin username is empty")
	}

	if passwordHash != "" {
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return AdminCredential{}, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return AdminCredential{Username: username, PasswordHash: []byte(passwordHash)}, nil
	}

	if password == "" {
		return AdminCredential{}, errors.New("admin password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AdminCredential{}, fmt.Errorf("hash admin password: %w", err)
	}
	return AdminCredential{Username: username, PasswordHash: hash}, nil
}

type AdminService struct {
	cred     AdminCredential
	sessions SessionStore
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewAdminService(cred AdminCredential, sessions SessionStore, secret []byte, ttl time.Duration) *AdminService {
	return &AdminService{
		cred:     cred,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Login checks the admin credential and opens a new session. The returned
// token is what the client presents on later admin calls.
func (s *AdminService) Login(ctx context.Context, username, password string) (token string, err error) {
	defer func() {
		metrics.LoginAttempts.WithLabelValues(metrics.PrincipalAdmin, metrics.Result(err)).Inc()
	}()

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cred.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.cred.PasswordHash, []byte(password))
	if !userOK || passErr != nil {
		slog.WarnContext(ctx, "admin login rejected", "username", username)
		return "", unauthorizedError("invalid admin credentials")
	}

	now := s.now()
	sess := session.Session{
		ID:            uuid.NewString(),
		AdminLoggedIn: true,
		ExpiresAt:     now.Add(s.ttl),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   s.cred.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	s.sessions.Save(sess)
	slog.InfoContext(ctx, "admin logged in", "session_id", sess.ID)

	return token, nil
}

// Logout forgets the session behind token. Unknown, expired or malformed
// tokens are ignored.
func (s *AdminService) Logout(ctx context.Context, token string) {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return
	}
	s.sessions.Delete(claims.ID)
	slog.InfoContext(ctx, "admin logged out", "session_id", claims.ID)
}

// CheckSession reports whether token refers to a live admin session.
func (s *AdminService) CheckSession(_ context.Context, token string) bool {
	if token == "" {
		return false
	}

	claims, err := s.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return false
	}

	sess, ok := s.sessions.Get(claims.ID)
	return ok && sess.AdminLoggedIn
}

func (s *AdminService) parse(token string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token")
	}

	return claims, nil
}
