package calls

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus"
	"github.com/classway/callkit/internal/media"
)

// Session is one active or pending call. All fields are guarded by the
// coordinator lock; the struct itself carries no synchronization.
type Session struct {
	ID         core.CallID
	Direction  core.CallDirection
	Kind       core.CallKind
	LocalPeer  core.PeerID
	RemotePeer core.PeerID

	state     core.CallState
	endReason core.EndReason

	localStream  *media.Stream
	remoteStream *media.RemoteStream
	transport    Transport
	router       *eventbus.Router

	// candidates received before the transport exists
	earlyCandidates []webrtc.ICECandidateInit

	ringTask *repeatingTask
	tickTask *repeatingTask

	startedAt        time.Time
	elapsedSeconds   int64
	remoteVideoMuted bool
}

func newSession(direction core.CallDirection, kind core.CallKind, local, remote core.PeerID, state core.CallState) *Session {
	return &Session{
		ID:         core.CallID(uuid.New().String()),
		Direction:  direction,
		Kind:       kind,
		LocalPeer:  local,
		RemotePeer: remote,
		state:      state,
	}
}

// transition moves the session to the next state, rejecting anything the
// state machine does not allow. States are never revisited.
func (s *Session) transition(to core.CallState) error {
	if !core.CanTransition(s.state, to) {
		return fmt.Errorf("%w: invalid transition %s -> %s", ErrNoSession, s.state, to)
	}
	s.state = to

	return nil
}

// Snapshot is the session view handed to the UI collaborator.
type Snapshot struct {
	ID               core.CallID        `json:"id"`
	Direction        core.CallDirection `json:"direction"`
	Kind             core.CallKind      `json:"kind"`
	State            core.CallState     `json:"state"`
	LocalPeer        core.PeerID        `json:"local_peer"`
	RemotePeer       core.PeerID        `json:"remote_peer"`
	RemoteVideoMuted bool               `json:"remote_video_muted"`
	StartedAt        time.Time          `json:"started_at,omitempty"`
	ElapsedSeconds   int64              `json:"elapsed_seconds"`
	EndReason        core.EndReason     `json:"end_reason,omitempty"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:               s.ID,
		Direction:        s.Direction,
		Kind:             s.Kind,
		State:            s.state,
		LocalPeer:        s.LocalPeer,
		RemotePeer:       s.RemotePeer,
		RemoteVideoMuted: s.remoteVideoMuted,
		StartedAt:        s.startedAt,
		ElapsedSeconds:   s.elapsedSeconds,
		EndReason:        s.endReason,
	}
}
