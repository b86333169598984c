package mw

import (
	"context"
	"net/http"
)

type contextKey string

const sessionCtxKey contextKey = "session_token"

// SessionCookie copies the admin session token from the named cookie into the
// request context. Requests without the cookie pass through untouched; the
// decision whether a session is required is left to the handlers.
func SessionCookie(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(name)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionToken returns the token stored by SessionCookie, or "" if none.
func SessionToken(ctx context.Context) string {
	token, _ := ctx.Value(sessionCtxKey).(string)
	return token
}
