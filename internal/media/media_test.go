package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classway/callkit/internal/core"
)

func TestTrackToggle(t *testing.T) {
	track := NewTrack(nil)

	assert.Equal(t, true, track.Enabled())
	assert.Equal(t, false, track.Toggle())
	assert.Equal(t, false, track.Enabled())
	assert.Equal(t, true, track.Toggle())
	assert.Equal(t, true, track.Enabled())
}

func TestStreamStopIsIdempotent(t *testing.T) {
	released := 0
	stream := NewStream(NewTrack(nil), nil, func() { released++ })

	stream.Stop()
	stream.Stop()

	assert.Equal(t, 1, released)
}

func TestDeviceProviderAudioCall(t *testing.T) {
	provider := NewDeviceProvider()

	stream, err := provider.Acquire(context.Background(), core.AudioCall)
	assert.Nil(t, err)

	assert.NotNil(t, stream.Audio())
	assert.NotNil(t, stream.Audio().Local())
	assert.Nil(t, stream.Video())
}

func TestDeviceProviderVideoCall(t *testing.T) {
	provider := NewDeviceProvider()

	stream, err := provider.Acquire(context.Background(), core.VideoCall)
	assert.Nil(t, err)

	assert.NotNil(t, stream.Audio())
	assert.NotNil(t, stream.Video())
	assert.NotNil(t, stream.Video().Local())
	assert.Equal(t, true, stream.Video().Enabled())
}

func TestDeviceProviderCancelledContext(t *testing.T) {
	provider := NewDeviceProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Acquire(ctx, core.AudioCall)
	assert.NotNil(t, err)
}
