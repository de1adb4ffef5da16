package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/classway/callkit/internal/calls"
	"github.com/classway/callkit/internal/core"
)

type MockCoordinator struct {
	Snapshot    calls.Snapshot
	HasSession  bool
	MockErr     error
	DialedPeer  core.PeerID
	DialedKind  core.CallKind
	Accepted    bool
	Rejected    bool
	HungUp      bool
	MuteEnabled bool
}

func (c *MockCoordinator) Dial(remote core.PeerID, kind core.CallKind) (calls.Snapshot, error) {
	c.DialedPeer = remote
	c.DialedKind = kind

	return c.Snapshot, c.MockErr
}

func (c *MockCoordinator) Accept() error {
	c.Accepted = true
	return c.MockErr
}

func (c *MockCoordinator) Reject() error {
	c.Rejected = true
	return c.MockErr
}

func (c *MockCoordinator) Hangup() error {
	c.HungUp = true
	return c.MockErr
}

func (c *MockCoordinator) ToggleMute() (bool, error) {
	return c.MuteEnabled, c.MockErr
}

func (c *MockCoordinator) ToggleCamera() (bool, error) {
	return c.MuteEnabled, c.MockErr
}

func (c *MockCoordinator) Current() (calls.Snapshot, bool) {
	return c.Snapshot, c.HasSession
}

func stubAuth(userID string) AuthHandler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestCallCreateHandler(t *testing.T) {
	t.Run("dials the requested peer and returns the session", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{
			Snapshot: calls.Snapshot{
				ID:         "call-42",
				State:      core.CallRingingOut,
				LocalPeer:  "alice",
				RemotePeer: "bob",
				Kind:       core.VideoCall,
			},
		}
		r.Post("/", CallCreateHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		body := `{"peer_id":"bob","kind":"video"}`
		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(body))
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, core.PeerID("bob"), coordinator.DialedPeer)
		assert.Equal(t, core.VideoCall, coordinator.DialedKind)

		snap := calls.Snapshot{}
		assert.Nil(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, core.CallID("call-42"), snap.ID)
		assert.Equal(t, core.CallRingingOut, snap.State)
	})

	t.Run("kind defaults to audio", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{}
		r.Post("/", CallCreateHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"peer_id":"bob"}`))
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, core.AudioCall, coordinator.DialedKind)
	})

	t.Run("bad request without peer_id", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{}
		r.Post("/", CallCreateHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{}`))
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("conflict when busy", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{MockErr: calls.ErrBusy}
		r.Post("/", CallCreateHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"peer_id":"bob"}`))
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unprocessable entity when media unavailable", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{MockErr: calls.ErrMediaUnavailable}
		r.Post("/", CallCreateHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Post(ts.URL, "application/json", strings.NewReader(`{"peer_id":"bob"}`))
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestCallLifecycleHandlers(t *testing.T) {
	t.Run("accept, reject and hangup succeed", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{}
		r.Post("/accept", CallAcceptHandler(coordinator))
		r.Post("/reject", CallRejectHandler(coordinator))
		r.Post("/hangup", CallHangupHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		for _, path := range []string{"/accept", "/reject", "/hangup"} {
			resp, err := http.Post(ts.URL+path, "application/json", nil)
			assert.Nil(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}

		assert.Equal(t, true, coordinator.Accepted)
		assert.Equal(t, true, coordinator.Rejected)
		assert.Equal(t, true, coordinator.HungUp)
	})

	t.Run("not found without a session", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{MockErr: calls.ErrNoSession}
		r.Post("/accept", CallAcceptHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/accept", "application/json", nil)
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCallMuteHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Use(stubAuth("alice"))

	coordinator := &MockCoordinator{MuteEnabled: false}
	r.Post("/mute", CallMuteHandler(coordinator))

	ts := httptest.NewServer(r)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/mute", "application/json", nil)
	assert.Nil(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := map[string]bool{}
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, false, result["enabled"])
}

func TestCallCurrentHandler(t *testing.T) {
	t.Run("returns the live session", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{
			HasSession: true,
			Snapshot: calls.Snapshot{
				ID:    "call-42",
				State: core.CallActive,
			},
		}
		r.Get("/current", CallCurrentHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/current")
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		snap := calls.Snapshot{}
		assert.Nil(t, json.NewDecoder(resp.Body).Decode(&snap))
		assert.Equal(t, core.CallActive, snap.State)
	})

	t.Run("not found when idle", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(stubAuth("alice"))

		coordinator := &MockCoordinator{}
		r.Get("/current", CallCurrentHandler(coordinator))

		ts := httptest.NewServer(r)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/current")
		assert.Nil(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
