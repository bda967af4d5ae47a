package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5000*time.Millisecond, cfg.DieDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.OutboundHeartbeat)
	assert.Equal(t, 10000*time.Millisecond, cfg.InboundHeartbeat)
	assert.Equal(t, 10, cfg.ProducerRouteCacheSize)
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outbound_heartbeat: 200ms\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, cfg.OutboundHeartbeat)
	assert.Equal(t, 10000*time.Millisecond, cfg.InboundHeartbeat, "unset fields keep defaults")
	assert.Equal(t, 10, cfg.ProducerRouteCacheSize)
}

func TestLoadZeroHeartbeatDisablesSide(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inbound_heartbeat: 0s\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.InboundHeartbeat, "explicit zero must disable the side, not fall back to default")
}
