package game

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cardroom/poker-client/internal/protocol"
)

// Store keeps the latest server snapshot and the last server error. All
// methods are safe for concurrent use.
type Store struct {
	logger *slog.Logger

	mu        sync.RWMutex
	playerID  string
	state     *protocol.GameState
	updatedAt time.Time
	lastErr   *protocol.ErrorData
}

// NewStore creates an empty store. playerID may be empty and set later via
// SetPlayerID once the session knows which seat is ours.
func NewStore(playerID string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:   logger,
		playerID: playerID,
	}
}

// SetPlayerID records which seat the local player occupies.
func (s *Store) SetPlayerID(id string) {
	s.mu.Lock()
	s.playerID = id
	s.mu.Unlock()
}

// PlayerID returns the local player's seat id, or "" when unknown.
func (s *Store) PlayerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playerID
}

// Apply replaces the stored snapshot. Snapshots are authoritative and
// whole; there is no merging.
func (s *Store) Apply(gs *protocol.GameState) {
	if gs == nil {
		return
	}
	s.mu.Lock()
	s.state = gs
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("applied snapshot",
		"round", gs.Round,
		"pot", gs.Pot,
		"status", gs.GameStatus,
	)
}

// State returns the latest snapshot, or nil before the first one arrives.
func (s *Store) State() *protocol.GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// UpdatedAt returns when the latest snapshot was applied.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// SetError records the most recent server error.
func (s *Store) SetError(e *protocol.ErrorData) {
	s.mu.Lock()
	s.lastErr = e
	s.mu.Unlock()
}

// LastError returns the most recent server error, or nil.
func (s *Store) LastError() *protocol.ErrorData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError discards the recorded server error.
func (s *Store) ClearError() {
	s.SetError(nil)
}

// MyPlayer returns the local player's seat state from the latest snapshot,
// or nil when unknown.
func (s *Store) MyPlayer() *protocol.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findPlayer(s.playerID)
}

// Opponent returns the other seat's state, or nil when unknown.
func (s *Store) Opponent() *protocol.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.playerID == "" {
		return nil
	}
	for i := range s.state.Players {
		if s.state.Players[i].PlayerID != s.playerID {
			return &s.state.Players[i]
		}
	}
	return nil
}

// IsMyTurn reports whether the server marks the local player as the one
// to act in an active hand.
func (s *Store) IsMyTurn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.playerID == "" {
		return false
	}
	if s.state.GameStatus != protocol.StatusActive {
		return false
	}
	return s.state.CurrentPlayer != nil && *s.state.CurrentPlayer == s.playerID
}

// AvailableActions derives which betting actions the local player may take
// right now. It returns nil when it is not our turn. Fold is always legal
// on our turn; check only when no bet is outstanding; call only when one
// is; raise only when our stack covers more than the amount to call.
func (s *Store) AvailableActions() []protocol.BetAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.playerID == "" {
		return nil
	}
	if s.state.GameStatus != protocol.StatusActive {
		return nil
	}
	if s.state.CurrentPlayer == nil || *s.state.CurrentPlayer != s.playerID {
		return nil
	}

	me := s.findPlayer(s.playerID)
	if me == nil || me.IsFolded || me.IsAllIn {
		return nil
	}

	outstanding := 0
	for i := range s.state.Players {
		if bet := s.state.Players[i].CurrentBet; bet > outstanding {
			outstanding = bet
		}
	}
	toCall := outstanding - me.CurrentBet

	actions := []protocol.BetAction{protocol.ActionFold}
	if toCall == 0 {
		actions = append(actions, protocol.ActionCheck)
	} else {
		actions = append(actions, protocol.ActionCall)
	}
	if me.ChipStack > toCall {
		actions = append(actions, protocol.ActionRaise)
	}
	return actions
}

// findPlayer returns the seat with the given id. Caller holds s.mu.
func (s *Store) findPlayer(id string) *protocol.PlayerState {
	if s.state == nil || id == "" {
		return nil
	}
	for i := range s.state.Players {
		if s.state.Players[i].PlayerID == id {
			return &s.state.Players[i]
		}
	}
	return nil
}
