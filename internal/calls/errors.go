package calls

import (
	"errors"

	"github.com/classway/callkit/internal/media"
)

var (
	// ErrMediaUnavailable: camera or microphone could not be acquired.
	ErrMediaUnavailable = media.ErrUnavailable
	// ErrSignalingUnavailable: the signaling channel could not be opened
	// or the initial publish failed.
	ErrSignalingUnavailable = errors.New("signaling channel unavailable")
	// ErrPeerConnectionFailed: ICE/DTLS failure reported by the transport.
	ErrPeerConnectionFailed = errors.New("peer connection failed")
	// ErrBusy: a non-terminal session already exists.
	ErrBusy = errors.New("another call is in progress")
	// ErrNoSession: the operation needs a live session in a specific state.
	ErrNoSession = errors.New("no session in expected state")
)
