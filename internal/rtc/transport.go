package rtc

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/config"
)

const (
	rtcpPLIInterval            = time.Second * 3
	dtlsRetransmissionInterval = 100 * time.Millisecond
	mtu                        = 1400
	iceDisconnectedTimeout     = 10 * time.Second // compatible for ice-lite with firefox client
	iceFailedTimeout           = 25 * time.Second // pion's default
	iceKeepaliveInterval       = 2 * time.Second  // pion's default
)

// Transport wraps one pion peer connection for a 1:1 call.
//
// ICE candidates arriving before the remote description is set are buffered
// and flushed by SetRemoteDescription. Applying them immediately would make
// pion reject them and the connection could silently fail.
type Transport struct {
	pc *webrtc.PeerConnection
	me *webrtc.MediaEngine

	lock              sync.Mutex
	pendingCandidates []webrtc.ICECandidateInit
}

type TransportParams struct {
	EnabledCodecs []config.CodecSpec
	Config        *config.WebRTCConfig
}

func NewTransport(params TransportParams) (*Transport, error) {
	pc, me, err := newPeerConnection(params)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		pc:                pc,
		me:                me,
		pendingCandidates: make([]webrtc.ICECandidateInit, 0),
	}

	t.pc.OnICEGatheringStateChange(func(state webrtc.ICEGathererState) {
		if state == webrtc.ICEGathererStateComplete {
			log.Debug().Str("service", "rtc").Msg("ICE gathering complete")
		}
	})

	return t, nil
}

func newPeerConnection(params TransportParams) (*webrtc.PeerConnection, *webrtc.MediaEngine, error) {
	me, err := createMediaEngine(params.EnabledCodecs, params.Config.Direction)
	if err != nil {
		return nil, nil, err
	}

	se := params.Config.SettingEngine
	se.DisableMediaEngineCopy(true)
	se.SetDTLSRetransmissionInterval(dtlsRetransmissionInterval)
	se.SetReceiveMTU(mtu)
	se.SetICETimeouts(iceDisconnectedTimeout, iceFailedTimeout, iceKeepaliveInterval)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithSettingEngine(se),
	)

	pc, err := api.NewPeerConnection(params.Config.Configuration)

	return pc, me, err
}

func (t *Transport) AddTrack(track webrtc.TrackLocal) error {
	_, err := t.pc.AddTrack(track)
	return err
}

func (t *Transport) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	if err := t.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}

	return *t.pc.LocalDescription(), nil
}

func (t *Transport) CreateAnswer() (webrtc.SessionDescription, error) {
	answer, err := t.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}

	if err := t.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}

	return *t.pc.LocalDescription(), nil
}

func (t *Transport) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	if t.pc.RemoteDescription() != nil {
		return t.pc.AddICECandidate(candidate)
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.pendingCandidates = append(t.pendingCandidates, candidate)

	return nil
}

func (t *Transport) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	if err := t.pc.SetRemoteDescription(sdp); err != nil {
		return err
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	for _, candidate := range t.pendingCandidates {
		if err := t.pc.AddICECandidate(candidate); err != nil {
			log.Error().Err(err).Str("service", "rtc").Msg("can't apply buffered candidate")
		}
	}

	t.pendingCandidates = make([]webrtc.ICECandidateInit, 0)

	return nil
}

func (t *Transport) OnICECandidate(callback func(webrtc.ICECandidateInit)) {
	t.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			log.Debug().Str("service", "rtc").Msg("no more ICE candidates")
			return
		}

		callback(candidate.ToJSON())
	})
}

func (t *Transport) OnConnectionStateChange(callback func(webrtc.PeerConnectionState)) {
	t.pc.OnConnectionStateChange(callback)
}

func (t *Transport) OnTrack(callback func(*webrtc.TrackRemote)) {
	t.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		go t.pumpRemoteTrack(track)
		callback(track)
	})
}

func (t *Transport) Close() error {
	return t.pc.Close()
}
