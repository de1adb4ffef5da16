// Package calls owns the lifecycle of a single peer-to-peer call session:
// local media acquisition, peer connection setup, signaling exchange and
// teardown.
package calls

import (
	"github.com/pion/webrtc/v3"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/media"
)

// Transport is what a session needs from a peer connection.
// The production implementation is rtc.Transport.
type Transport interface {
	AddTrack(track webrtc.TrackLocal) error
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetRemoteDescription(sdp webrtc.SessionDescription) error
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	OnICECandidate(callback func(webrtc.ICECandidateInit))
	OnConnectionStateChange(callback func(webrtc.PeerConnectionState))
	OnTrack(callback func(*webrtc.TrackRemote))
	Close() error
}

// TransportFactory builds one transport per session.
type TransportFactory func() (Transport, error)

// Ringer plays one iteration of the local ring loop (ringtone, vibration).
// It is a local action, not a network retry.
type Ringer interface {
	Ring()
}

// Sink receives the media streams for rendering. SetSink may be called any
// number of times; streams are reattached without reacquiring devices.
type Sink interface {
	AttachLocal(stream *media.Stream)
	AttachRemote(stream *media.RemoteStream)
}

// NotifyEvent is a user-visible transient notification.
type NotifyEvent string

const (
	NotifyConnected        NotifyEvent = "connected"
	NotifyPeerEnded        NotifyEvent = "peer_ended"
	NotifyRejected         NotifyEvent = "rejected"
	NotifyFailed           NotifyEvent = "failed"
	NotifyMediaUnavailable NotifyEvent = "media_unavailable"
	NotifyTimeout          NotifyEvent = "timeout"
)

type Notification struct {
	Event NotifyEvent
	Peer  core.PeerID
}
