package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestTokenAuthMiddleware(t *testing.T) {
	tokens := map[string]string{"secret-token": "alice"}

	newServer := func(auth *TokenAuth) *httptest.Server {
		r := chi.NewRouter()
		r.Use(auth.Middleware())
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r)
			assert.Nil(t, err)

			w.Write([]byte(userID))
		})

		return httptest.NewServer(r)
	}

	t.Run("resolves a known token to the peer", func(t *testing.T) {
		ts := newServer(NewTokenAuth(tokens))
		defer ts.Close()

		req, err := http.NewRequest("GET", ts.URL, nil)
		assert.Nil(t, err)
		req.Header.Set("X-Auth", "secret-token")

		resp, err := http.DefaultClient.Do(req)
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unauthorized without a token", func(t *testing.T) {
		ts := newServer(NewTokenAuth(tokens))
		defer ts.Close()

		resp, err := http.Get(ts.URL)
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unauthorized with an unknown token", func(t *testing.T) {
		ts := newServer(NewTokenAuth(tokens))
		defer ts.Close()

		req, err := http.NewRequest("GET", ts.URL, nil)
		assert.Nil(t, err)
		req.Header.Set("X-Auth", "wrong")

		resp, err := http.DefaultClient.Do(req)
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("custom AuthFailFunc overrides the response", func(t *testing.T) {
		auth := NewTokenAuth(tokens)
		auth.AuthFailFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			w.WriteHeader(http.StatusBadRequest)
		}

		ts := newServer(auth)
		defer ts.Close()

		resp, err := http.Get(ts.URL)
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
