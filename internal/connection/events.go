package connection

import (
	"time"

	"github.com/cardroom/poker-client/internal/protocol"
	"github.com/cardroom/poker-client/internal/reconnect"
)

// Status is the connection lifecycle state. Exactly one holds at any
// instant; transitions are driven only by socket lifecycle events and the
// reconnection policy.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusFailed       Status = "failed"
)

// EventKind identifies the variant carried by an Event.
type EventKind int

const (
	// EventStatus reports a connection state transition.
	EventStatus EventKind = iota
	// EventLatency reports a heartbeat round-trip measurement.
	EventLatency
	// EventSnapshot forwards a validated game state from the server.
	EventSnapshot
	// EventError surfaces a server-reported or transport error.
	EventError
	// EventReconnect forwards retry-policy progress.
	EventReconnect
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventLatency:
		return "latency"
	case EventSnapshot:
		return "snapshot"
	case EventError:
		return "error"
	case EventReconnect:
		return "reconnect"
	}
	return "unknown"
}

// Event is a typed state change published by the Manager. The UI layer
// subscribes to these; the manager never knows who listens.
type Event struct {
	Kind EventKind

	Status    Status
	Connected bool

	Latency time.Duration

	Snapshot *protocol.GameState

	Err *protocol.ErrorData

	Reconnect *reconnect.Event
}

// StatusInfo is a point-in-time view of the connection for imperative
// reads.
type StatusInfo struct {
	Connected    bool
	Status       Status
	Latency      time.Duration
	SessionToken string
	PlayerID     string
}
