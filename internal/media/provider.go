package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/classway/callkit/internal/core"
)

// DeviceProvider builds local sample tracks for the capture pipeline:
// opus for the microphone, VP8 for the camera.
type DeviceProvider struct{}

func NewDeviceProvider() *DeviceProvider {
	return &DeviceProvider{}
}

func (p *DeviceProvider) Acquire(ctx context.Context, kind core.CallKind) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamID := uuid.New().String()

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 1},
		"audio",
		streamID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var video *Track
	if kind == core.VideoCall {
		videoTrack, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			"video",
			streamID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		video = NewTrack(videoTrack)
	}

	return NewStream(NewTrack(audioTrack), video, nil), nil
}
