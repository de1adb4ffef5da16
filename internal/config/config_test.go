package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/classway/callkit/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Nil(t, err)

	assert.Equal(t, core.DevelopmentEnv, cfg.Env)
	assert.Equal(t, ":3001", cfg.Address)
	assert.Equal(t, SignalingDriverRedis, cfg.Signaling.Driver)
	assert.Equal(t, "localhost:6379", cfg.Signaling.RedisAddr)
	assert.Equal(t, DefaultStunServers, cfg.RTC.StunServers)
	assert.Equal(t, uint32(50000), cfg.RTC.ICEPortRangeStart)
	assert.Equal(t, time.Hour, cfg.Call.MaxDuration)
	assert.Equal(t, 3*time.Second, cfg.Call.RingInterval)
}

func TestLoadFromFile(t *testing.T) {
	raw := `
env: production
address: ":8080"
signaling:
  driver: nats
  nats_url: nats://signaling:4222
call:
  max_duration: 30m
  ring_interval: 5s
auth_tokens:
  secret-token: alice
`
	path := filepath.Join(t.TempDir(), "callkit.yml")
	assert.Nil(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	assert.Nil(t, err)

	assert.Equal(t, core.ProductionEnv, cfg.Env)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, SignalingDriverNats, cfg.Signaling.Driver)
	assert.Equal(t, "nats://signaling:4222", cfg.Signaling.NatsURL)
	assert.Equal(t, 30*time.Minute, cfg.Call.MaxDuration)
	assert.Equal(t, 5*time.Second, cfg.Call.RingInterval)
	assert.Equal(t, "alice", cfg.AuthTokens["secret-token"])
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callkit.yml")
	assert.Nil(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	_, err := Load(path)
	assert.NotNil(t, err)
}
