package rtc

import (
	"strings"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"

	"github.com/classway/callkit/internal/config"
)

func createMediaEngine(enabledCodecs []config.CodecSpec, directionConfig config.DirectionConfig) (*webrtc.MediaEngine, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := registerCodecs(mediaEngine, enabledCodecs, directionConfig.RTCPFeedback); err != nil {
		return nil, err
	}

	if err := registerHeaderExtensions(mediaEngine, directionConfig.RTPHeaderExtension); err != nil {
		return nil, err
	}

	// Default interceptors give us NACKs and RTCP reports, same as the
	// implicit pipeline of webrtc.NewPeerConnection.
	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, i); err != nil {
		return nil, err
	}

	return mediaEngine, nil
}

func registerCodecs(
	mediaEngine *webrtc.MediaEngine,
	enabledCodecs []config.CodecSpec,
	rtcpFeedback config.RTCPFeedbackConfig,
) error {
	opusCodec := webrtc.RTPCodecCapability{
		MimeType:     webrtc.MimeTypeOpus,
		ClockRate:    48000,
		Channels:     1,
		SDPFmtpLine:  "minptime=10;useinbandfec=1",
		RTCPFeedback: rtcpFeedback.Audio,
	}
	if isCodecEnabled(enabledCodecs, opusCodec) {
		if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: opusCodec,
			PayloadType:        111,
		}, webrtc.RTPCodecTypeAudio); err != nil {
			return err
		}
	}

	vp8Codec := webrtc.RTPCodecCapability{
		MimeType:     webrtc.MimeTypeVP8,
		ClockRate:    90000,
		RTCPFeedback: rtcpFeedback.Video,
	}
	if isCodecEnabled(enabledCodecs, vp8Codec) {
		if err := mediaEngine.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: vp8Codec,
			PayloadType:        96,
		}, webrtc.RTPCodecTypeVideo); err != nil {
			return err
		}
	}

	return nil
}

func registerHeaderExtensions(mediaEngine *webrtc.MediaEngine, rtpHeaderExtension config.RTPHeaderExtensionConfig) error {
	for _, extension := range rtpHeaderExtension.Audio {
		if err := mediaEngine.RegisterHeaderExtension(
			webrtc.RTPHeaderExtensionCapability{URI: extension},
			webrtc.RTPCodecTypeAudio,
		); err != nil {
			return err
		}
	}

	for _, extension := range rtpHeaderExtension.Video {
		if err := mediaEngine.RegisterHeaderExtension(
			webrtc.RTPHeaderExtensionCapability{URI: extension},
			webrtc.RTPCodecTypeVideo,
		); err != nil {
			return err
		}
	}

	return nil
}

func isCodecEnabled(codecs []config.CodecSpec, cap webrtc.RTPCodecCapability) bool {
	for _, codec := range codecs {
		if !strings.EqualFold(codec.Mime, cap.MimeType) {
			continue
		}
		if codec.FmtpLine == "" || codec.FmtpLine == cap.SDPFmtpLine {
			return true
		}
	}
	return false
}
