package eventbus

import (
	"errors"
	"strings"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/classway/callkit/internal/core"
	"github.com/classway/callkit/internal/eventbus/rpc"
)

var (
	errConvertCallRequest  = errors.New("can't convert to call_request")
	errConvertControl      = errors.New("can't convert to control rpc")
	errConvertSDP          = errors.New("can't convert to sdp rpc")
	errConvertIceCandidate = errors.New("can't convert to ice candidate")
	errConvertCameraToggle = errors.New("can't convert to camera_toggle")
	errUndefinedMethod     = errors.New("undefined method")
)

// Router subscribes to the local user's signaling channel and dispatches
// incoming RPCs to the registered callbacks.
type Router struct {
	subscriber   Subscriber
	subscription Bus
	done         chan struct{}

	onCallRequest  func(core.PeerID, core.CallKind) error
	onAccepted     func(core.PeerID) error
	onRejected     func(core.PeerID) error
	onEnded        func(core.PeerID) error
	onOffer        func(core.PeerID, webrtc.SessionDescription) error
	onAnswer       func(core.PeerID, webrtc.SessionDescription) error
	onICECandidate func(core.PeerID, webrtc.ICECandidateInit) error
	onCameraToggle func(core.PeerID, bool) error
}

func NewRouter(sub Subscriber, localPeer core.PeerID) (*Router, error) {
	router := &Router{
		subscriber: sub,
		done:       make(chan struct{}),
	}
	subscription, err := router.subscriber.Subscribe(localPeer)
	if err != nil {
		return nil, err
	}
	router.subscription = subscription

	return router, nil
}

func (router *Router) Start() <-chan struct{} {
	log.Debug().Str("service", "router").Msg("start")

	ready := make(chan struct{})

	go func() {
		channel := router.subscription.Channel()
		close(ready)

		for msg := range channel {
			router.dispatch(msg.Payload)
		}

		close(router.done)
	}()

	return ready
}

// Stop closes the signaling subscription and reports loop completion.
func (router *Router) Stop() <-chan struct{} {
	if err := router.subscription.Close(); err != nil {
		log.Error().Err(err).Str("service", "router").Msg("can't close subscription")
	}
	return router.done
}

func (router *Router) dispatch(payload string) {
	r, err := rpc.RpcFromReader(strings.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Str("service", "router").Msg("")
		return
	}

	switch r.GetMethod() {
	case rpc.CallRequestMethod:
		msg, ok := r.(*rpc.CallRequestRpc)
		if !ok {
			log.Error().Err(errConvertCallRequest).Str("service", "router").Msg("")
			return
		}
		router.fire(router.onCallRequestFn(msg))
	case rpc.AcceptedMethod, rpc.RejectedMethod, rpc.EndedMethod:
		msg, ok := r.(*rpc.ControlRpc)
		if !ok {
			log.Error().Err(errConvertControl).Str("service", "router").Msg("")
			return
		}
		router.fire(router.controlFn(msg))
	case rpc.SDPOfferMethod, rpc.SDPAnswerMethod:
		msg, ok := r.(*rpc.SDPRpc)
		if !ok {
			log.Error().Err(errConvertSDP).Str("service", "router").Msg("")
			return
		}
		router.fire(router.sdpFn(msg))
	case rpc.ICECandidateMethod:
		msg, ok := r.(*rpc.ICECandidateRpc)
		if !ok {
			log.Error().Err(errConvertIceCandidate).Str("service", "router").Msg("")
			return
		}
		if router.onICECandidate == nil {
			return
		}
		router.fire(func() error {
			return router.onICECandidate(msg.Params.SenderID, msg.Params.ICECandidateInit)
		})
	case rpc.CameraToggleMethod:
		msg, ok := r.(*rpc.CameraToggleRpc)
		if !ok {
			log.Error().Err(errConvertCameraToggle).Str("service", "router").Msg("")
			return
		}
		if router.onCameraToggle == nil {
			return
		}
		router.fire(func() error {
			return router.onCameraToggle(msg.Params.SenderID, msg.Params.CameraOff)
		})
	default:
		log.Error().Err(errUndefinedMethod).Str("rpcMethod", string(r.GetMethod())).Str("service", "router").Msg("")
	}
}

func (router *Router) onCallRequestFn(msg *rpc.CallRequestRpc) func() error {
	if router.onCallRequest == nil {
		return nil
	}
	return func() error {
		return router.onCallRequest(msg.Params.SenderID, msg.Params.Kind)
	}
}

func (router *Router) controlFn(msg *rpc.ControlRpc) func() error {
	var callback func(core.PeerID) error

	switch msg.GetMethod() {
	case rpc.AcceptedMethod:
		callback = router.onAccepted
	case rpc.RejectedMethod:
		callback = router.onRejected
	case rpc.EndedMethod:
		callback = router.onEnded
	}
	if callback == nil {
		return nil
	}
	return func() error {
		return callback(msg.Params.SenderID)
	}
}

func (router *Router) sdpFn(msg *rpc.SDPRpc) func() error {
	var callback func(core.PeerID, webrtc.SessionDescription) error

	switch msg.GetMethod() {
	case rpc.SDPOfferMethod:
		callback = router.onOffer
	case rpc.SDPAnswerMethod:
		callback = router.onAnswer
	}
	if callback == nil {
		return nil
	}
	return func() error {
		return callback(msg.Params.SenderID, msg.Params.SessionDescription)
	}
}

func (router *Router) fire(callback func() error) {
	if callback == nil {
		return
	}
	if err := callback(); err != nil {
		log.Error().Err(err).Str("service", "router").Msg("callback error")
	}
}

func (router *Router) OnCallRequest(callback func(core.PeerID, core.CallKind) error) {
	router.onCallRequest = callback
}

func (router *Router) OnAccepted(callback func(core.PeerID) error) {
	router.onAccepted = callback
}

func (router *Router) OnRejected(callback func(core.PeerID) error) {
	router.onRejected = callback
}

func (router *Router) OnEnded(callback func(core.PeerID) error) {
	router.onEnded = callback
}

func (router *Router) OnOffer(callback func(core.PeerID, webrtc.SessionDescription) error) {
	router.onOffer = callback
}

func (router *Router) OnAnswer(callback func(core.PeerID, webrtc.SessionDescription) error) {
	router.onAnswer = callback
}

func (router *Router) OnICECandidate(callback func(core.PeerID, webrtc.ICECandidateInit) error) {
	router.onICECandidate = callback
}

func (router *Router) OnCameraToggle(callback func(core.PeerID, bool) error) {
	router.onCameraToggle = callback
}
