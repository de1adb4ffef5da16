package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/classway/callkit/internal/core"
)

type ctxKey string

// UserIDContextKey is used for extract the authed peer from request context
const UserIDContextKey ctxKey = "current_user_id"

// AuthFailFunc is function that is called when authentication failed
type AuthFailFunc func(w http.ResponseWriter, r *http.Request, err error)

// AuthHandler is optional handler for mocking in tests
type AuthHandler func(next http.Handler) http.Handler

var (
	xAuth             = http.CanonicalHeaderKey("X-Auth")
	ErrEmptyAuthToken = errors.New("empty auth token")
	ErrUnknownToken   = errors.New("unknown auth token")
)

// TokenAuth resolves the X-Auth header against a static token table.
// Verifying tokens against the identity provider is the provider's own
// business; the agent only needs the mapping.
type TokenAuth struct {
	Tokens       map[string]string
	AuthFailFunc AuthFailFunc
	StubHandler  AuthHandler
}

func NewTokenAuth(tokens map[string]string) *TokenAuth {
	return &TokenAuth{Tokens: tokens}
}

func (m *TokenAuth) Middleware() AuthHandler {
	if m.StubHandler != nil {
		return m.StubHandler
	}

	return m.defaultMiddleware()
}

func (m *TokenAuth) defaultMiddleware() AuthHandler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(xAuth)
			if token == "" {
				m.authFailed(w, r, ErrEmptyAuthToken)
				return
			}

			userID, ok := m.Tokens[token]
			if !ok {
				m.authFailed(w, r, ErrUnknownToken)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *TokenAuth) authFailed(w http.ResponseWriter, r *http.Request, err error) {
	if m.AuthFailFunc != nil {
		m.AuthFailFunc(w, r, err)
	} else {
		w.WriteHeader(http.StatusUnauthorized)
	}
}

// extractUserID pulls the authed peer out of the request context
func extractUserID(r *http.Request) (core.PeerID, error) {
	userID, ok := r.Context().Value(UserIDContextKey).(string)
	if !ok {
		return "", errors.New("can't get user ID from request context")
	}

	return core.PeerID(userID), nil
}
