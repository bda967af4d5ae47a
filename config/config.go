// Package config carries the knobs named in spec.md §6, in the tagged
// struct style of the teacher's message-queue/config.Config (JSON+YAML
// tags, a DefaultConfig constructor, loadable from a file via
// gopkg.in/yaml.v3).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings a ConnectionHandler is
// constructed with. Per-connection state (negotiated version, session id,
// ...) lives in connection.State, not here.
type Config struct {
	// DieDelay is the grace period between emitting an ERROR frame and
	// forcibly closing the connection.
	DieDelay time.Duration `json:"die_delay" yaml:"die_delay"`

	// OutboundHeartbeat is the server's minimum send interval offered to
	// clients in the CONNECTED frame's heart-beat header (cx position).
	OutboundHeartbeat time.Duration `json:"outbound_heartbeat" yaml:"outbound_heartbeat"`

	// InboundHeartbeat is the server's minimum expected receive interval.
	InboundHeartbeat time.Duration `json:"inbound_heartbeat" yaml:"inbound_heartbeat"`

	// ProducerRouteCacheSize bounds the per-connection LRU of producer
	// routes.
	ProducerRouteCacheSize int `json:"producer_route_cache_size" yaml:"producer_route_cache_size"`

	// DefaultHost names the virtual host to bind to when a CONNECT frame
	// omits the host header.
	DefaultHost string `json:"default_host" yaml:"default_host"`
}

// DefaultConfig returns the defaults documented in spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		DieDelay:               5000 * time.Millisecond,
		OutboundHeartbeat:      100 * time.Millisecond,
		InboundHeartbeat:       10000 * time.Millisecond,
		ProducerRouteCacheSize: 10,
		DefaultHost:            "/",
	}
}

// Load reads a YAML config file, defaulting any zero-valued field left
// unset by the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg *Config) *Config {
	d := DefaultConfig()
	if cfg.DieDelay == 0 {
		cfg.DieDelay = d.DieDelay
	}
	if cfg.ProducerRouteCacheSize == 0 {
		cfg.ProducerRouteCacheSize = d.ProducerRouteCacheSize
	}
	if cfg.DefaultHost == "" {
		cfg.DefaultHost = d.DefaultHost
	}
	return cfg
}
