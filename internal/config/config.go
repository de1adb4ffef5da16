package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/classway/callkit/internal/core"
)

const (
	SignalingDriverRedis = "redis"
	SignalingDriverNats  = "nats"
)

type Config struct {
	Env     core.Environment `mapstructure:"env"`
	Address string           `mapstructure:"address"`

	Signaling SignalingConfig `mapstructure:"signaling"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RTC       RTCConfig       `mapstructure:"rtc"`
	Call      CallConfig      `mapstructure:"call"`

	// AuthTokens maps an X-Auth token to the peer it authenticates.
	AuthTokens map[string]string `mapstructure:"auth_tokens"`
}

type SignalingConfig struct {
	Driver    string `mapstructure:"driver"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	NatsURL   string `mapstructure:"nats_url"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RTCConfig struct {
	StunServers       []string `mapstructure:"stun_servers"`
	ICEPortRangeStart uint32   `mapstructure:"ice_port_range_start"`
	ICEPortRangeEnd   uint32   `mapstructure:"ice_port_range_end"`
}

type CallConfig struct {
	// MaxDuration is the hard local cutoff for an active call.
	MaxDuration  time.Duration `mapstructure:"max_duration"`
	RingInterval time.Duration `mapstructure:"ring_interval"`
}

var DefaultStunServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)

	v.SetDefault("env", string(core.DevelopmentEnv))
	v.SetDefault("address", ":3001")
	v.SetDefault("signaling.driver", SignalingDriverRedis)
	v.SetDefault("signaling.redis_addr", "localhost:6379")
	v.SetDefault("signaling.redis_db", 0)
	v.SetDefault("signaling.nats_url", "nats://localhost:4222")
	v.SetDefault("rtc.stun_servers", DefaultStunServers)
	v.SetDefault("rtc.ice_port_range_start", 50000)
	v.SetDefault("rtc.ice_port_range_end", 60000)
	v.SetDefault("call.max_duration", "1h")
	v.SetDefault("call.ring_interval", "3s")

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine, defaults cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("can't read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("can't parse config: %w", err)
	}

	return cfg, nil
}
