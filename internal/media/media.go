package media

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/classway/callkit/internal/core"
)

// ErrUnavailable means the capture device could not be acquired:
// permission denied, busy, or simply absent.
var ErrUnavailable = errors.New("media device unavailable")

// Provider is the capture capability boundary. The session logic never talks
// to devices directly, so it stays testable with fakes.
type Provider interface {
	Acquire(ctx context.Context, kind core.CallKind) (*Stream, error)
}

// Track is one local media track plus its enabled flag. Disabling a track
// mutes it without releasing the device.
type Track struct {
	local webrtc.TrackLocal

	mu      sync.Mutex
	enabled bool
}

func NewTrack(local webrtc.TrackLocal) *Track {
	return &Track{
		local:   local,
		enabled: true,
	}
}

func (t *Track) Local() webrtc.TrackLocal {
	return t.local
}

func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.enabled
}

func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
}

// Toggle flips the enabled flag and returns the new value.
func (t *Track) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = !t.enabled
	return t.enabled
}

// Stream owns the local tracks for the lifetime of one call session.
type Stream struct {
	audio *Track
	video *Track

	stopOnce sync.Once
	release  func()
}

// NewStream builds a stream from acquired tracks. release frees the
// underlying devices and may be nil.
func NewStream(audio, video *Track, release func()) *Stream {
	return &Stream{
		audio:   audio,
		video:   video,
		release: release,
	}
}

func (s *Stream) Audio() *Track {
	return s.audio
}

// Video returns nil for audio-only streams.
func (s *Stream) Video() *Track {
	return s.video
}

// Stop releases the capture devices. Safe to call more than once.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// RemoteStream collects the tracks received from the peer connection.
// It is handed to the renderer sink as-is.
type RemoteStream struct {
	mu     sync.Mutex
	tracks []*webrtc.TrackRemote
}

func (s *RemoteStream) AddTrack(track *webrtc.TrackRemote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks = append(s.tracks, track)
}

func (s *RemoteStream) Tracks() []*webrtc.TrackRemote {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks := make([]*webrtc.TrackRemote, len(s.tracks))
	copy(tracks, s.tracks)

	return tracks
}
