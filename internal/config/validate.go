package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/cardroom/poker-client/internal/protocol"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server.url scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.Connection.ConnectTimeout < 0 {
		return errors.New("connection.connect_timeout must be >= 0")
	}
	if c.Connection.HeartbeatInterval <= 0 {
		return errors.New("connection.heartbeat_interval must be > 0")
	}
	if c.Connection.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	if c.Reconnect.MaxAttempts != nil && *c.Reconnect.MaxAttempts < 0 {
		return errors.New("reconnect.max_attempts must be >= 0")
	}
	if c.Reconnect.InitialDelay <= 0 {
		return errors.New("reconnect.initial_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		return fmt.Errorf("reconnect.max_delay (%v) cannot be less than initial_delay (%v)",
			c.Reconnect.MaxDelay, c.Reconnect.InitialDelay)
	}
	if c.Reconnect.BackoffFactor < 1 {
		return fmt.Errorf("reconnect.backoff_factor must be >= 1, got %g", c.Reconnect.BackoffFactor)
	}

	if c.Session.Duration <= 0 {
		return errors.New("session.duration must be > 0")
	}
	if c.Session.StorePath == "" {
		return errors.New("session.store_path is required")
	}

	if !protocol.ValidPlayerID(c.Player.PreferredSeat) {
		return fmt.Errorf("player.preferred_seat must be p1 or p2, got %q", c.Player.PreferredSeat)
	}

	return nil
}
