package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultServerURL         = "ws://localhost:8080/ws"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultBufferSize        = 256
	DefaultMaxAttempts       = 10
	DefaultInitialDelay      = 2 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultBackoffFactor     = 1.5
	DefaultSessionDuration   = 30 * time.Minute
	DefaultPreferredSeat     = "p1"
)

// DefaultStorePath returns the session store location under the user's
// home directory, falling back to the working directory.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pokerclient/session.json"
	}
	return filepath.Join(home, ".pokerclient", "session.json")
}

func (c *ClientConfig) applyDefaults() {
	// Server defaults
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}

	// Connection defaults
	if c.Connection.ConnectTimeout == 0 {
		c.Connection.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}

	// Reconnect defaults. An explicit max_attempts: 0 means unlimited
	// retries and must survive defaulting, so only nil gets the default.
	if c.Reconnect.MaxAttempts == nil {
		n := DefaultMaxAttempts
		c.Reconnect.MaxAttempts = &n
	}
	if c.Reconnect.InitialDelay == 0 {
		c.Reconnect.InitialDelay = DefaultInitialDelay
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultMaxDelay
	}
	if c.Reconnect.BackoffFactor == 0 {
		c.Reconnect.BackoffFactor = DefaultBackoffFactor
	}

	// Session defaults
	if c.Session.Duration == 0 {
		c.Session.Duration = DefaultSessionDuration
	}
	if c.Session.StorePath == "" {
		c.Session.StorePath = DefaultStorePath()
	}

	// Player defaults
	if c.Player.PreferredSeat == "" {
		c.Player.PreferredSeat = DefaultPreferredSeat
	}
}
