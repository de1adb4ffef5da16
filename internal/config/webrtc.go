package config

import (
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v3"
)

type CodecSpec struct {
	Mime     string
	FmtpLine string
}

// EnabledCodecs is the codec set negotiated for 1:1 calls.
var EnabledCodecs = []CodecSpec{
	{Mime: webrtc.MimeTypeOpus},
	{Mime: webrtc.MimeTypeVP8},
}

type WebRTCConfig struct {
	Configuration webrtc.Configuration
	SettingEngine webrtc.SettingEngine
	Direction     DirectionConfig
}

type RTPHeaderExtensionConfig struct {
	Audio []string
	Video []string
}

type RTCPFeedbackConfig struct {
	Audio []webrtc.RTCPFeedback
	Video []webrtc.RTCPFeedback
}

type DirectionConfig struct {
	RTPHeaderExtension RTPHeaderExtensionConfig
	RTCPFeedback       RTCPFeedbackConfig
}

func NewWebRTCConfig(config *Config) (*WebRTCConfig, error) {
	c := webrtc.Configuration{
		SDPSemantics: webrtc.SDPSemanticsUnifiedPlan,
	}

	stunServers := config.RTC.StunServers
	if len(stunServers) == 0 {
		stunServers = DefaultStunServers
	}
	c.ICEServers = []webrtc.ICEServer{
		{URLs: stunServers},
	}

	s := webrtc.SettingEngine{}

	// Use only UDP
	networkTypes := []webrtc.NetworkType{
		webrtc.NetworkTypeUDP4, webrtc.NetworkTypeUDP6,
	}
	if err := s.SetEphemeralUDPPortRange(uint16(config.RTC.ICEPortRangeStart), uint16(config.RTC.ICEPortRangeEnd)); err != nil {
		return nil, err
	}
	s.SetNetworkTypes(networkTypes)

	direction := DirectionConfig{
		RTPHeaderExtension: RTPHeaderExtensionConfig{
			Audio: []string{
				sdp.SDESMidURI,
				sdp.AudioLevelURI,
			},
			Video: []string{
				sdp.SDESMidURI,
				sdp.TransportCCURI,
			},
		},
		RTCPFeedback: RTCPFeedbackConfig{
			Video: []webrtc.RTCPFeedback{
				{Type: webrtc.TypeRTCPFBGoogREMB},
				{Type: webrtc.TypeRTCPFBTransportCC},
				{Type: webrtc.TypeRTCPFBCCM, Parameter: "fir"},
				{Type: webrtc.TypeRTCPFBNACK},
				{Type: webrtc.TypeRTCPFBNACK, Parameter: "pli"},
			},
		},
	}

	return &WebRTCConfig{
		Configuration: c,
		SettingEngine: s,
		Direction:     direction,
	}, nil
}
