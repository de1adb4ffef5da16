package calls

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus"
	"github.com/classway/callkit/internal/eventbus/rpc"
	"github.com/classway/callkit/internal/media"
	"github.com/classway/callkit/internal/telemetry"
)

const (
	defaultMaxCallDuration = time.Hour
	defaultRingInterval    = 3 * time.Second
	elapsedTickInterval    = time.Second
)

// Options configures a Coordinator.
type Options struct {
	LocalPeer    core.PeerID
	Publisher    eventbus.Publisher
	Subscriber   eventbus.Subscriber
	Media        media.Provider
	NewTransport TransportFactory

	// Ringer is optional; without it incoming calls are silent.
	Ringer Ringer

	// MaxCallDuration is the hard local cutoff for an active call.
	// Defaults to one hour.
	MaxCallDuration time.Duration
	RingInterval    time.Duration
}

// Coordinator owns at most one live call session for the local user.
// It is the single-slot session registry: a second call cannot be created
// while a non-terminal session exists.
type Coordinator struct {
	opts Options

	mu      sync.Mutex
	session *Session
	dialing bool
	sink    Sink

	// process-lifetime router for incoming call requests
	callRouter *eventbus.Router

	onIncomingCall     func(Snapshot)
	onStateChange      func(Snapshot)
	onRemoteStream     func(*media.RemoteStream)
	onRemoteVideoMuted func(bool)
	onNotification     func(Notification)
	onEnded            func(Snapshot)
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.MaxCallDuration == 0 {
		opts.MaxCallDuration = defaultMaxCallDuration
	}
	if opts.RingInterval == 0 {
		opts.RingInterval = defaultRingInterval
	}

	return &Coordinator{opts: opts}
}

// Start opens the local user's signaling channel for incoming call requests.
func (c *Coordinator) Start() error {
	router, err := eventbus.NewRouter(c.opts.Subscriber, c.opts.LocalPeer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignalingUnavailable, err)
	}
	router.OnCallRequest(c.handleCallRequest)
	<-router.Start()

	c.callRouter = router

	return nil
}

// Close hangs up any live session and stops listening for call requests.
func (c *Coordinator) Close() {
	if err := c.Hangup(); err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("hangup on close")
	}
	if c.callRouter != nil {
		c.callRouter.Stop()
	}
}

func (c *Coordinator) OnIncomingCall(callback func(Snapshot)) { c.onIncomingCall = callback }
func (c *Coordinator) OnStateChange(callback func(Snapshot)) { c.onStateChange = callback }
func (c *Coordinator) OnRemoteStream(callback func(*media.RemoteStream)) {
	c.onRemoteStream = callback
}
func (c *Coordinator) OnRemoteVideoMuted(callback func(bool)) { c.onRemoteVideoMuted = callback }
func (c *Coordinator) OnNotification(callback func(Notification)) { c.onNotification = callback }
func (c *Coordinator) OnEnded(callback func(Snapshot)) { c.onEnded = callback }

// Current returns a snapshot of the live session, if any.
func (c *Coordinator) Current() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Snapshot{}, false
	}
	return c.session.snapshot(), true
}

// Dial starts an outgoing call. Media is acquired up front: if the devices
// can't be acquired the dial attempt is rejected and no session is created.
func (c *Coordinator) Dial(remote core.PeerID, kind core.CallKind) (Snapshot, error) {
	c.mu.Lock()
	if c.session != nil || c.dialing {
		c.mu.Unlock()
		return Snapshot{}, ErrBusy
	}
	c.dialing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.dialing = false
		c.mu.Unlock()
	}()

	stream, err := c.opts.Media.Acquire(context.Background(), kind)
	if err != nil {
		return Snapshot{}, err
	}

	sess := newSession(core.Outgoing, kind, c.opts.LocalPeer, remote, core.CallRingingOut)
	sess.localStream = stream

	router, err := c.newSessionRouter()
	if err != nil {
		stream.Stop()
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSignalingUnavailable, err)
	}
	sess.router = router

	// take the slot before publishing so the peer's reply can't race the
	// session registration
	c.mu.Lock()
	c.session = sess
	snap := sess.snapshot()
	c.mu.Unlock()

	if err := c.opts.Publisher.Publish(remote, rpc.NewCallRequestRpc(c.opts.LocalPeer, kind)); err != nil {
		c.mu.Lock()
		if c.session == sess {
			c.session = nil
		}
		sess.state = core.CallEnded
		c.mu.Unlock()
		stream.Stop()
		router.Stop()
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSignalingUnavailable, err)
	}

	c.attachLocal(stream)
	c.fireStateChange(snap)

	return snap, nil
}

// Accept transitions a ringing incoming call toward connecting. Media
// acquisition runs in the background; if it fails the call is auto-rejected.
func (c *Coordinator) Accept() error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.state != core.CallRingingIn {
		c.mu.Unlock()
		return ErrNoSession
	}
	if sess.ringTask != nil {
		sess.ringTask.Stop()
	}
	c.mu.Unlock()

	go c.finishAccept(sess)

	return nil
}

func (c *Coordinator) finishAccept(sess *Session) {
	stream, err := c.opts.Media.Acquire(context.Background(), sess.Kind)

	c.mu.Lock()
	if c.session != sess || sess.state != core.CallRingingIn {
		// the session was hung up or superseded while acquisition was in
		// flight; its result must not resurrect the call
		c.mu.Unlock()
		if stream != nil {
			stream.Stop()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.publish(sess.RemotePeer, rpc.NewRejectedRpc(c.opts.LocalPeer))
		c.teardown(sess, core.EndMediaUnavailable, NotifyMediaUnavailable)
		return
	}

	sess.localStream = stream
	if err := sess.transition(core.CallConnecting); err != nil {
		c.mu.Unlock()
		return
	}
	snap := sess.snapshot()
	c.mu.Unlock()

	if err := c.setupTransport(sess); err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't set up transport")
		c.teardown(sess, core.EndFailed, NotifyFailed)
		return
	}

	// the session may have been hung up while the transport was being built
	if !c.sessionLive(sess) {
		return
	}

	c.publish(sess.RemotePeer, rpc.NewAcceptedRpc(c.opts.LocalPeer))
	c.attachLocal(stream)
	c.fireStateChange(snap)
}

// Reject declines a ringing incoming call. Signal delivery is best-effort.
func (c *Coordinator) Reject() error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.state != core.CallRingingIn {
		c.mu.Unlock()
		return ErrNoSession
	}
	remote := sess.RemotePeer
	c.mu.Unlock()

	go c.publish(remote, rpc.NewRejectedRpc(c.opts.LocalPeer))
	c.teardown(sess, core.EndRejected, "")

	return nil
}

// Hangup terminates the current session in any state. It always succeeds
// locally and is idempotent: a second call has no further side effects.
func (c *Coordinator) Hangup() error {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return nil
	}
	remote := sess.RemotePeer
	c.mu.Unlock()

	go c.publish(remote, rpc.NewEndedRpc(c.opts.LocalPeer))
	c.teardown(sess, core.EndHangup, "")

	return nil
}

// ToggleMute flips the local audio track and returns its new enabled state.
// Mute is local-only: no signaling message is sent.
func (c *Coordinator) ToggleMute() (bool, error) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.state.IsTerminal() || sess.localStream == nil {
		c.mu.Unlock()
		return false, ErrNoSession
	}
	track := sess.localStream.Audio()
	c.mu.Unlock()

	if track == nil {
		return false, ErrNoSession
	}
	return track.Toggle(), nil
}

// ToggleCamera flips the local video track and tells the peer, which updates
// its remote-video-muted flag from the signal alone.
func (c *Coordinator) ToggleCamera() (bool, error) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.state.IsTerminal() || sess.localStream == nil {
		c.mu.Unlock()
		return false, ErrNoSession
	}
	track := sess.localStream.Video()
	remote := sess.RemotePeer
	c.mu.Unlock()

	if track == nil {
		return false, ErrNoSession
	}

	enabled := track.Toggle()
	c.publish(remote, rpc.NewCameraToggleRpc(c.opts.LocalPeer, !enabled))

	return enabled, nil
}

// SetSink rebinds the renderer sink. Current streams are reattached without
// reacquiring media, so minimize/maximize cycles are safe.
func (c *Coordinator) SetSink(sink Sink) {
	c.mu.Lock()
	c.sink = sink
	var local *media.Stream
	var remote *media.RemoteStream
	if c.session != nil {
		local = c.session.localStream
		remote = c.session.remoteStream
	}
	c.mu.Unlock()

	if sink == nil {
		return
	}
	if local != nil {
		sink.AttachLocal(local)
	}
	if remote != nil {
		sink.AttachRemote(remote)
	}
}

func (c *Coordinator) handleCallRequest(from core.PeerID, kind core.CallKind) error {
	c.mu.Lock()
	if c.session != nil || c.dialing {
		c.mu.Unlock()
		log.Warn().Str("service", "calls").Str("from", string(from)).Msg("call request while busy, ignored")
		return nil
	}
	c.mu.Unlock()

	sess := newSession(core.Incoming, kind, c.opts.LocalPeer, from, core.CallRingingIn)

	router, err := c.newSessionRouter()
	if err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't open session signaling")
		return err
	}
	sess.router = router

	c.mu.Lock()
	if c.session != nil || c.dialing {
		c.mu.Unlock()
		router.Stop()
		return nil
	}
	c.session = sess
	if c.opts.Ringer != nil {
		sess.ringTask = startRepeatingTask(c.opts.RingInterval, c.opts.Ringer.Ring)
	}
	snap := sess.snapshot()
	c.mu.Unlock()

	if c.opts.Ringer != nil {
		c.opts.Ringer.Ring()
	}
	if c.onIncomingCall != nil {
		c.onIncomingCall(snap)
	}
	c.fireStateChange(snap)

	return nil
}

func (c *Coordinator) handleAccepted(from core.PeerID) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer || sess.state != core.CallRingingOut {
		c.mu.Unlock()
		return nil
	}
	if err := sess.transition(core.CallConnecting); err != nil {
		c.mu.Unlock()
		return err
	}
	snap := sess.snapshot()
	c.mu.Unlock()

	if err := c.setupTransport(sess); err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't set up transport")
		c.teardown(sess, core.EndFailed, NotifyFailed)
		return nil
	}

	// the session may have been hung up while the transport was being built
	c.mu.Lock()
	if c.session != sess || sess.state.IsTerminal() || sess.transport == nil {
		c.mu.Unlock()
		return nil
	}
	transport := sess.transport
	c.mu.Unlock()

	offer, err := transport.CreateOffer()
	if err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't create offer")
		c.teardown(sess, core.EndFailed, NotifyFailed)
		return nil
	}

	c.publish(sess.RemotePeer, rpc.NewSDPOfferRpc(c.opts.LocalPeer, offer))
	c.fireStateChange(snap)

	return nil
}

func (c *Coordinator) handleOffer(from core.PeerID, sdp webrtc.SessionDescription) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer || sess.state != core.CallConnecting || sess.transport == nil {
		c.mu.Unlock()
		return nil
	}
	transport := sess.transport
	c.mu.Unlock()

	if err := transport.SetRemoteDescription(sdp); err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't apply offer")
		c.teardown(sess, core.EndFailed, NotifyFailed)
		return nil
	}

	answer, err := transport.CreateAnswer()
	if err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't create answer")
		c.teardown(sess, core.EndFailed, NotifyFailed)
		return nil
	}

	c.publish(sess.RemotePeer, rpc.NewSDPAnswerRpc(c.opts.LocalPeer, answer))

	return nil
}

func (c *Coordinator) handleAnswer(from core.PeerID, sdp webrtc.SessionDescription) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer || sess.state != core.CallConnecting || sess.transport == nil {
		c.mu.Unlock()
		return nil
	}
	transport := sess.transport
	c.mu.Unlock()

	if err := transport.SetRemoteDescription(sdp); err != nil {
		log.Error().Err(err).Str("service", "calls").Msg("can't apply answer")
		c.teardown(sess, core.EndFailed, NotifyFailed)
	}

	return nil
}

func (c *Coordinator) handleICECandidate(from core.PeerID, candidate webrtc.ICECandidateInit) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer || sess.state.IsTerminal() {
		// candidates from unrelated peers or dead sessions are ignored
		c.mu.Unlock()
		return nil
	}
	if sess.transport == nil {
		sess.earlyCandidates = append(sess.earlyCandidates, candidate)
		c.mu.Unlock()
		return nil
	}
	transport := sess.transport
	c.mu.Unlock()

	if err := transport.AddICECandidate(candidate); err != nil {
		// best-effort negotiation: a malformed or late candidate is not fatal
		log.Warn().Err(err).Str("service", "calls").Msg("ice candidate rejected")
	}

	return nil
}

func (c *Coordinator) handleRejected(from core.PeerID) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.teardown(sess, core.EndRemoteRejected, NotifyRejected)

	return nil
}

func (c *Coordinator) handleEnded(from core.PeerID) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.teardown(sess, core.EndRemoteEnded, NotifyPeerEnded)

	return nil
}

func (c *Coordinator) handleCameraToggle(from core.PeerID, cameraOff bool) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || from != sess.RemotePeer || sess.state.IsTerminal() {
		c.mu.Unlock()
		return nil
	}
	sess.remoteVideoMuted = cameraOff
	c.mu.Unlock()

	if c.onRemoteVideoMuted != nil {
		c.onRemoteVideoMuted(cameraOff)
	}

	return nil
}

func (c *Coordinator) setupTransport(sess *Session) error {
	transport, err := c.opts.NewTransport()
	if err != nil {
		return err
	}

	transport.OnICECandidate(func(candidate webrtc.ICECandidateInit) {
		c.publish(sess.RemotePeer, rpc.NewICECandidateRpc(c.opts.LocalPeer, candidate))
	})
	transport.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.handleConnectionState(sess, state)
	})
	transport.OnTrack(func(track *webrtc.TrackRemote) {
		c.handleRemoteTrack(sess, track)
	})

	c.mu.Lock()
	if c.session != sess || sess.state.IsTerminal() {
		c.mu.Unlock()
		return transport.Close()
	}

	stream := sess.localStream
	sess.transport = transport
	early := sess.earlyCandidates
	sess.earlyCandidates = nil
	c.mu.Unlock()

	if stream != nil {
		if audio := stream.Audio(); audio != nil && audio.Local() != nil {
			if err := transport.AddTrack(audio.Local()); err != nil {
				return err
			}
		}
		if video := stream.Video(); video != nil && video.Local() != nil {
			if err := transport.AddTrack(video.Local()); err != nil {
				return err
			}
		}
	}

	for _, candidate := range early {
		if err := transport.AddICECandidate(candidate); err != nil {
			log.Warn().Err(err).Str("service", "calls").Msg("buffered candidate rejected")
		}
	}

	return nil
}

func (c *Coordinator) handleConnectionState(sess *Session, state webrtc.PeerConnectionState) {
	switch state {
	case webrtc.PeerConnectionStateConnected:
		c.mu.Lock()
		if c.session != sess || sess.state != core.CallConnecting {
			c.mu.Unlock()
			return
		}
		if err := sess.transition(core.CallActive); err != nil {
			c.mu.Unlock()
			return
		}
		sess.startedAt = time.Now().UTC()
		sess.tickTask = startRepeatingTask(elapsedTickInterval, func() { c.tick(sess) })
		snap := sess.snapshot()
		c.mu.Unlock()

		telemetry.CallConnected()
		c.fireNotification(NotifyConnected, sess.RemotePeer)
		c.fireStateChange(snap)
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected:
		// terminal: no reconnection, no ICE restart
		c.teardown(sess, core.EndFailed, NotifyFailed)
	}
}

func (c *Coordinator) handleRemoteTrack(sess *Session, track *webrtc.TrackRemote) {
	c.mu.Lock()
	if c.session != sess || sess.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	if sess.remoteStream == nil {
		sess.remoteStream = &media.RemoteStream{}
	}
	stream := sess.remoteStream
	stream.AddTrack(track)
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		sink.AttachRemote(stream)
	}
	if c.onRemoteStream != nil {
		c.onRemoteStream(stream)
	}
}

func (c *Coordinator) tick(sess *Session) {
	c.mu.Lock()
	if c.session != sess || sess.state != core.CallActive {
		c.mu.Unlock()
		return
	}
	sess.elapsedSeconds++
	over := sess.elapsedSeconds >= int64(c.opts.MaxCallDuration/time.Second)
	c.mu.Unlock()

	if over {
		c.teardown(sess, core.EndTimeout, NotifyTimeout)
	}
}

// teardown is the single exit path for every terminal transition. It is
// idempotent: a session that already ended is left untouched. Media release,
// transport close and signaling unsubscribe are independent steps; one
// failing never skips the others.
func (c *Coordinator) teardown(sess *Session, reason core.EndReason, notify NotifyEvent) {
	c.mu.Lock()
	if sess == nil || sess.state.IsTerminal() {
		c.mu.Unlock()
		return
	}

	sess.state = core.CallEnded
	sess.endReason = reason
	if c.session == sess {
		c.session = nil
	}

	ringTask := sess.ringTask
	tickTask := sess.tickTask
	stream := sess.localStream
	transport := sess.transport
	router := sess.router
	sess.remoteStream = nil
	wasActive := !sess.startedAt.IsZero()
	snap := sess.snapshot()
	c.mu.Unlock()

	if ringTask != nil {
		ringTask.Stop()
	}
	if tickTask != nil {
		tickTask.Stop()
	}
	if stream != nil {
		stream.Stop()
	}
	if transport != nil {
		if err := transport.Close(); err != nil {
			log.Error().Err(err).Str("service", "calls").Msg("can't close transport")
		}
	}
	if router != nil {
		router.Stop()
	}

	telemetry.CallEnded(string(reason), wasActive, time.Duration(snap.ElapsedSeconds)*time.Second)

	if notify != "" {
		c.fireNotification(notify, snap.RemotePeer)
	}
	c.fireStateChange(snap)
	if c.onEnded != nil {
		c.onEnded(snap)
	}
}

func (c *Coordinator) sessionLive(sess *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session == sess && !sess.state.IsTerminal()
}

func (c *Coordinator) newSessionRouter() (*eventbus.Router, error) {
	router, err := eventbus.NewRouter(c.opts.Subscriber, c.opts.LocalPeer)
	if err != nil {
		return nil, err
	}

	router.OnAccepted(c.handleAccepted)
	router.OnRejected(c.handleRejected)
	router.OnEnded(c.handleEnded)
	router.OnOffer(c.handleOffer)
	router.OnAnswer(c.handleAnswer)
	router.OnICECandidate(c.handleICECandidate)
	router.OnCameraToggle(c.handleCameraToggle)
	<-router.Start()

	return router, nil
}

func (c *Coordinator) publish(peer core.PeerID, r rpc.Rpc) {
	if err := c.opts.Publisher.Publish(peer, r); err != nil {
		log.Error().Err(err).Str("service", "calls").Str("peer", string(peer)).Msg("can't publish signal")
	}
}

func (c *Coordinator) attachLocal(stream *media.Stream) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()

	if sink != nil && stream != nil {
		sink.AttachLocal(stream)
	}
}

func (c *Coordinator) fireStateChange(snap Snapshot) {
	if c.onStateChange != nil {
		c.onStateChange(snap)
	}
}

func (c *Coordinator) fireNotification(event NotifyEvent, peer core.PeerID) {
	if c.onNotification != nil {
		c.onNotification(Notification{Event: event, Peer: peer})
	}
}
