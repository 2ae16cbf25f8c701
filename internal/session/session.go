package session

import (
	"encoding/binary"
	"log/slog"
	mrand "math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is how long a freshly created or refreshed session stays
// valid.
const DefaultDuration = 30 * time.Minute

// Session is the client's identity credential. A session is valid iff all
// three fields are set and Expiry is in the future.
type Session struct {
	Token    string
	PlayerID string
	Expiry   time.Time
}

// Manager owns session persistence and expiry enforcement. Other components
// hold read-only copies of the Session value, never the stored state.
type Manager struct {
	store    Store
	duration time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a session manager on top of store. A zero duration
// falls back to DefaultDuration.
func NewManager(store Store, duration time.Duration, logger *slog.Logger) *Manager {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		duration: duration,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the current session, or nil when it is missing, malformed, or
// expired. An expired or malformed session is cleared from the store as a
// side effect.
func (m *Manager) Get() *Session {
	token, okT := m.store.Get(KeyToken)
	playerID, okP := m.store.Get(KeyPlayerID)
	expiryStr, okE := m.store.Get(KeyExpiry)

	if !okT || !okP || !okE || token == "" || playerID == "" {
		if okT || okP || okE {
			// Partial state is as good as none.
			m.Clear()
		}
		return nil
	}

	expiryMs, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		m.logger.Warn("session expiry unparsable, clearing session", "value", expiryStr)
		m.Clear()
		return nil
	}

	expiry := time.UnixMilli(expiryMs)
	if !m.now().Before(expiry) {
		m.logger.Debug("session expired, clearing", "expiry", expiry)
		m.Clear()
		return nil
	}

	return &Session{Token: token, PlayerID: playerID, Expiry: expiry}
}

// Create persists a new session with expiry = now + the configured duration
// and returns a copy of it.
func (m *Manager) Create(token, playerID string) Session {
	expiry := m.now().Add(m.duration)

	if err := m.store.Set(KeyToken, token); err != nil {
		m.logger.Warn("failed to persist session token", "error", err)
	}
	if err := m.store.Set(KeyPlayerID, playerID); err != nil {
		m.logger.Warn("failed to persist player id", "error", err)
	}
	if err := m.store.Set(KeyExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		m.logger.Warn("failed to persist session expiry", "error", err)
	}

	return Session{Token: token, PlayerID: playerID, Expiry: expiry}
}

// Touch extends the current session's expiry by the configured duration.
// It reports false when no valid session exists.
func (m *Manager) Touch() bool {
	if m.Get() == nil {
		return false
	}
	expiry := m.now().Add(m.duration)
	if err := m.store.Set(KeyExpiry, strconv.FormatInt(expiry.UnixMilli(), 10)); err != nil {
		m.logger.Warn("failed to refresh session expiry", "error", err)
		return false
	}
	return true
}

// Associate updates the player id on an existing session, keeping the token
// and expiry. It reports false when no valid session exists.
func (m *Manager) Associate(playerID string) bool {
	if m.Get() == nil {
		return false
	}
	if err := m.store.Set(KeyPlayerID, playerID); err != nil {
		m.logger.Warn("failed to update player id", "error", err)
		return false
	}
	return true
}

// Clear removes all session state.
func (m *Manager) Clear() {
	if err := m.store.Delete(KeyToken); err != nil {
		m.logger.Warn("failed to clear session token", "error", err)
	}
	if err := m.store.Delete(KeyPlayerID); err != nil {
		m.logger.Warn("failed to clear player id", "error", err)
	}
	if err := m.store.Delete(KeyExpiry); err != nil {
		m.logger.Warn("failed to clear session expiry", "error", err)
	}
}

// Valid reports whether a usable session exists right now.
func (m *Manager) Valid() bool {
	return m.Get() != nil
}

// Remaining returns the time until the current session expires, or zero
// when no valid session exists.
func (m *Manager) Remaining() time.Duration {
	s := m.Get()
	if s == nil {
		return 0
	}
	return s.Expiry.Sub(m.now())
}

// GenerateToken returns a version-4 UUID string from a cryptographic random
// source. When that source fails it degrades to a pseudo-random UUID-shaped
// string; callers must not treat tokens from the degraded path as
// authentication secrets.
func GenerateToken() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Best-effort fallback. Not cryptographically strong.
	var b uuid.UUID
	binary.BigEndian.PutUint64(b[0:8], mrand.Uint64())
	binary.BigEndian.PutUint64(b[8:16], mrand.Uint64())
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return b.String()
}
