package config

import "time"

// ClientConfig is the root configuration for a poker client instance.
type ClientConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
	Session    SessionConfig    `yaml:"session"`
	Player     PlayerConfig     `yaml:"player"`
}

// ServerConfig holds the game server endpoint.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// ConnectionConfig holds WebSocket connection settings.
type ConnectionConfig struct {
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
	AutoReconnect     *bool         `yaml:"auto_reconnect"` // nil = enabled
}

// ReconnectConfig holds the retry backoff schedule.
type ReconnectConfig struct {
	MaxAttempts   *int          `yaml:"max_attempts"` // nil = default; 0 = retry forever
	InitialDelay  time.Duration `yaml:"initial_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
	Jitter        *bool         `yaml:"jitter"` // nil = enabled
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	Duration  time.Duration `yaml:"duration"`
	StorePath string        `yaml:"store_path"`
}

// PlayerConfig identifies the local player.
type PlayerConfig struct {
	Name          string `yaml:"name"`
	PreferredSeat string `yaml:"preferred_seat"`
}

// AutoReconnectEnabled reports the auto_reconnect setting, defaulting to on.
func (c *ConnectionConfig) AutoReconnectEnabled() bool {
	return c.AutoReconnect == nil || *c.AutoReconnect
}

// JitterEnabled reports the jitter setting, defaulting to on.
func (c *ReconnectConfig) JitterEnabled() bool {
	return c.Jitter == nil || *c.Jitter
}
