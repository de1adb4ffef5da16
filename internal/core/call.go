package core

// PeerID identifies a call participant.
type PeerID string

// CallID identifies a single call session.
type CallID string

type CallState string

const (
	CallIdle       CallState = "idle"
	CallRingingOut CallState = "ringing_out"
	CallRingingIn  CallState = "ringing_in"
	CallConnecting CallState = "connecting"
	CallActive     CallState = "active"
	CallEnded      CallState = "ended"
)

// IsTerminal reports whether no further transition is possible.
func (s CallState) IsTerminal() bool {
	return s == CallEnded
}

type CallKind string

const (
	AudioCall CallKind = "audio"
	VideoCall CallKind = "video"
)

type CallDirection string

const (
	Outgoing CallDirection = "outgoing"
	Incoming CallDirection = "incoming"
)

// EndReason records why a session reached CallEnded.
type EndReason string

const (
	EndHangup           EndReason = "hangup"
	EndRejected         EndReason = "rejected"
	EndRemoteEnded      EndReason = "remote_ended"
	EndRemoteRejected   EndReason = "remote_rejected"
	EndFailed           EndReason = "failed"
	EndMediaUnavailable EndReason = "media_unavailable"
	EndTimeout          EndReason = "timeout"
)

var callTransitions = map[CallState][]CallState{
	CallIdle:       {CallRingingOut, CallRingingIn},
	CallRingingOut: {CallConnecting, CallEnded},
	CallRingingIn:  {CallConnecting, CallEnded},
	CallConnecting: {CallActive, CallEnded},
	CallActive:     {CallEnded},
	CallEnded:      {},
}

// CanTransition reports whether the state machine allows from -> to.
// States are monotonic: no state is ever revisited.
func CanTransition(from, to CallState) bool {
	for _, s := range callTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
