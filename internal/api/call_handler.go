package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/calls"
	"github.com/classway/callkit/internal/core"
)

// CallCoordinator is the invocation surface the UI talks to. Long-running
// work reports completion via state changes, not via these handlers.
type CallCoordinator interface {
	Dial(remote core.PeerID, kind core.CallKind) (calls.Snapshot, error)
	Accept() error
	Reject() error
	Hangup() error
	ToggleMute() (bool, error)
	ToggleCamera() (bool, error)
	Current() (calls.Snapshot, bool)
}

type DialRequest struct {
	PeerID core.PeerID   `json:"peer_id"`
	Kind   core.CallKind `json:"kind"`
}

func CallCreateHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &DialRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			log.Error().Err(err).Str("service", "api").Msg("can't parse dial request")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.PeerID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Kind == "" {
			req.Kind = core.AudioCall
		}

		snap, err := coordinator.Dial(req.PeerID, req.Kind)
		if err != nil {
			writeCallError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, snap)
	}
}

func CallAcceptHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.Accept(); err != nil {
			writeCallError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func CallRejectHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.Reject(); err != nil {
			writeCallError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func CallHangupHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := coordinator.Hangup(); err != nil {
			writeCallError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func CallMuteHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := coordinator.ToggleMute()
		if err != nil {
			writeCallError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"enabled": enabled})
	}
}

func CallCameraHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := coordinator.ToggleCamera()
		if err != nil {
			writeCallError(w, err)
			return
		}
		writeJSON(w, map[string]bool{"enabled": enabled})
	}
}

func CallCurrentHandler(coordinator CallCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := coordinator.Current()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, snap)
	}
}

func writeCallError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calls.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, calls.ErrNoSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, calls.ErrMediaUnavailable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, calls.ErrSignalingUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("service", "api").Msg("can't encode response")
	}
}
