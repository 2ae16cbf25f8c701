package protocol

import "errors"

// Errors
var (
	ErrNotObject     = errors.New("frame is not a JSON object")
	ErrMissingType   = errors.New("frame has no string type field")
	ErrUnknownType   = errors.New("unknown message type")
	ErrOutboundType  = errors.New("received a client-only message type")
	ErrEmptyMessage  = errors.New("message has no payload")
	ErrInvalidAction = errors.New("invalid bet action")
)

// Game limits. A heads-up table seats exactly two players.
const (
	MaxPlayers        = 2
	MaxCommunityCards = 5
)

// MessageType discriminates wire frames.
type MessageType string

// Inbound types (server → client).
const (
	TypeGameStateUpdate  MessageType = "game_state_update"
	TypeError            MessageType = "error"
	TypeConnectionStatus MessageType = "connection_status"
	TypeHeartbeat        MessageType = "heartbeat"
)

// Outbound types (client → server). Receiving one of these is a protocol
// violation and Parse rejects it.
const (
	TypeBetAction   MessageType = "bet_action"
	TypeSessionInit MessageType = "session_init"
	TypeChat        MessageType = "chat_message"
)

// BetAction is a player betting decision.
type BetAction string

const (
	ActionCheck BetAction = "check"
	ActionCall  BetAction = "call"
	ActionRaise BetAction = "raise"
	ActionFold  BetAction = "fold"
)

// BettingRound enumerates the phases of a hand.
type BettingRound string

const (
	RoundPreflop  BettingRound = "preflop"
	RoundFlop     BettingRound = "flop"
	RoundTurn     BettingRound = "turn"
	RoundRiver    BettingRound = "river"
	RoundShowdown BettingRound = "showdown"
)

// GameStatus is the overall table status.
type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

// PlayerPosition is a seat position within a hand.
type PlayerPosition string

const (
	PositionButton     PlayerPosition = "button"
	PositionSmallBlind PlayerPosition = "small_blind"
	PositionBigBlind   PlayerPosition = "big_blind"
	PositionNone       PlayerPosition = "none"
)

// PlayerState is one seat's state inside a snapshot.
type PlayerState struct {
	PlayerID      string         `json:"player_id"`
	ChipStack     int            `json:"chip_stack"`
	HoleCards     []string       `json:"hole_cards"`
	Position      PlayerPosition `json:"position"`
	CurrentBet    int            `json:"current_bet"`
	IsActive      bool           `json:"is_active"`
	IsFolded      bool           `json:"is_folded"`
	IsAllIn       bool           `json:"is_all_in"`
	LastAction    string         `json:"last_action,omitempty"`
	TimeRemaining int            `json:"time_remaining"`
}

// GameState is the authoritative server-pushed table snapshot. The client
// consumes it verbatim and never computes game state itself.
type GameState struct {
	Players        []PlayerState `json:"players"`
	CommunityCards []string      `json:"community_cards"`
	Pot            int           `json:"pot"`
	CurrentPlayer  *string       `json:"current_player"`
	TimeRemaining  int           `json:"time_remaining"`
	Round          BettingRound  `json:"round"`
	MinBet         int           `json:"min_bet"`
	MaxBet         int           `json:"max_bet"`
	LastWinner     string        `json:"last_winner,omitempty"`
	WinningHand    string        `json:"winning_hand,omitempty"`
	GameStatus     GameStatus    `json:"game_status"`
}

// ErrorData is the payload of an error frame.
type ErrorData struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Server error codes the client reacts to.
const (
	ErrCodeInvalidToken  = "invalid_token"
	ErrCodeGameNotActive = "game_not_active"
)

// ConnectionStatusData is the payload of a connection_status frame.
type ConnectionStatusData struct {
	Status   string `json:"status"`
	PlayerID string `json:"player_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// HeartbeatData carries the sender's clock in Unix milliseconds. The echo
// is used to compute round-trip latency.
type HeartbeatData struct {
	Timestamp int64 `json:"timestamp"`
}

// BetActionData is the payload of an outbound bet_action frame. Amount is
// a pointer so "no amount" and "amount 0" stay distinguishable on the wire.
type BetActionData struct {
	Action BetAction `json:"action"`
	Amount *int      `json:"amount,omitempty"`
}

// SessionInitData is the payload of an outbound session_init frame. Both
// fields are optional; an empty payload requests a fresh session.
type SessionInitData struct {
	PlayerName     string `json:"player_name,omitempty"`
	ReconnectToken string `json:"reconnect_token,omitempty"`
}

// ChatData is the payload of a chat_message frame.
type ChatData struct {
	PlayerID  string `json:"player_id"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Message is the discriminated union of all wire frames. Exactly one
// payload field is non-nil, matching Type.
type Message struct {
	Type  MessageType
	Token string

	GameState        *GameState
	Error            *ErrorData
	ConnectionStatus *ConnectionStatusData
	Heartbeat        *HeartbeatData
	BetAction        *BetActionData
	SessionInit      *SessionInitData
	Chat             *ChatData
}

// ValidCard reports whether s is a two-character rank+suit token
// (rank 2-9TJQKA, suit cdhs).
func ValidCard(s string) bool {
	if len(s) != 2 {
		return false
	}
	switch s[0] {
	case '2', '3', '4', '5', '6', '7', '8', '9', 'T', 'J', 'Q', 'K', 'A':
	default:
		return false
	}
	switch s[1] {
	case 'c', 'd', 'h', 's':
		return true
	}
	return false
}

// ValidPlayerID reports whether id names one of the two fixed seats.
func ValidPlayerID(id string) bool {
	return id == "p1" || id == "p2"
}

// ValidBetAction reports whether a is a defined betting action.
func ValidBetAction(a BetAction) bool {
	switch a {
	case ActionCheck, ActionCall, ActionRaise, ActionFold:
		return true
	}
	return false
}

// ValidBettingRound reports whether r is a defined betting round.
func ValidBettingRound(r BettingRound) bool {
	switch r {
	case RoundPreflop, RoundFlop, RoundTurn, RoundRiver, RoundShowdown:
		return true
	}
	return false
}

// ValidGameStatus reports whether s is a defined game status.
func ValidGameStatus(s GameStatus) bool {
	switch s {
	case StatusWaiting, StatusActive, StatusFinished:
		return true
	}
	return false
}

// ValidPosition reports whether p is a defined seat position.
func ValidPosition(p PlayerPosition) bool {
	switch p {
	case PositionButton, PositionSmallBlind, PositionBigBlind, PositionNone:
		return true
	}
	return false
}

// ValidConnectionStatus reports whether s is a status the server may report
// for a player connection.
func ValidConnectionStatus(s string) bool {
	switch s {
	case "connected", "disconnected", "reconnecting":
		return true
	}
	return false
}
