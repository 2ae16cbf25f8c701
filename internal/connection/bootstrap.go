package connection

import (
	"github.com/cardroom/poker-client/internal/protocol"
	"github.com/cardroom/poker-client/internal/session"
)

// SessionBootstrapper derives a session when the server has not issued an
// explicit credential. The manager consults it on the first snapshot that
// arrives while no session exists. Replacing this with a real server
// handshake requires no changes to connection lifecycle code.
type SessionBootstrapper interface {
	// Bootstrap returns the token and player id for a new session, or
	// ok=false when no session can be derived from the snapshot.
	Bootstrap(gs *protocol.GameState) (token, playerID string, ok bool)
}

// SnapshotRoster derives a session from the player roster of the first
// snapshot: it claims Preferred when that seat exists, otherwise the first
// seat, and generates a local token. The token is client-generated, not a
// server credential; the server is expected to adopt it via session_init.
type SnapshotRoster struct {
	// Preferred is the seat to claim when present, e.g. "p1".
	Preferred string
}

func (s SnapshotRoster) Bootstrap(gs *protocol.GameState) (string, string, bool) {
	if gs == nil || len(gs.Players) == 0 {
		return "", "", false
	}

	playerID := gs.Players[0].PlayerID
	for _, p := range gs.Players {
		if p.PlayerID == s.Preferred {
			playerID = p.PlayerID
			break
		}
	}

	return session.GenerateToken(), playerID, true
}
