package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "lobby", cfg.RoomName)
	assert.Equal(t, 10, cfg.ClockInitialSeconds)
	assert.Equal(t, 5, cfg.BidIncrementSeconds)
	assert.Equal(t, 500*time.Millisecond, cfg.ReportInterval)
	assert.Equal(t, PolicyRestart, cfg.ExpiredBidPolicy)
	assert.Equal(t, BackendRedis, cfg.PresenceBackend)
	assert.Equal(t, uint16(6379), cfg.RedisPort)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("EXPIRED_BID_POLICY", "reject")
	t.Setenv("BID_INCREMENT_SECONDS", "7")
	t.Setenv("REPORT_INTERVAL", "1s")
	t.Setenv("PRESENCE_BACKEND", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, PolicyReject, cfg.ExpiredBidPolicy)
	assert.Equal(t, 7, cfg.BidIncrementSeconds)
	assert.Equal(t, time.Second, cfg.ReportInterval)
	assert.Equal(t, BackendMemory, cfg.PresenceBackend)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown policy":     {"EXPIRED_BID_POLICY": "extend-forever"},
		"zero increment":     {"BID_INCREMENT_SECONDS": "0"},
		"zero initial clock": {"CLOCK_INITIAL_SECONDS": "0"},
		"unknown backend":    {"PRESENCE_BACKEND": "etcd"},
		"ping after pong":    {"WS_PING_PERIOD": "20s"},
		"bad duration":       {"REPORT_INTERVAL": "soon"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
