package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the raw wire framing: {type, data, token?}.
type envelope struct {
	Type  MessageType     `json:"type"`
	Data  json.RawMessage `json:"data"`
	Token string          `json:"token,omitempty"`
}

// Parse validates a raw frame and returns the typed message, or an error
// describing the first violation found. It never returns a partially
// populated message: any structural or semantic failure rejects the whole
// frame. Types the client only ever sends are rejected even when
// well-formed, since receiving one indicates a protocol violation.
func Parse(raw []byte) (*Message, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if top == nil {
		return nil, ErrNotObject
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if _, ok := top["type"]; !ok || env.Type == "" {
		return nil, ErrMissingType
	}

	msg := &Message{Type: env.Type, Token: env.Token}

	switch env.Type {
	case TypeGameStateUpdate:
		gs, err := parseGameState(env.Data)
		if err != nil {
			return nil, fmt.Errorf("game_state_update: %w", err)
		}
		msg.GameState = gs
	case TypeError:
		e, err := parseError(env.Data)
		if err != nil {
			return nil, fmt.Errorf("error: %w", err)
		}
		msg.Error = e
	case TypeConnectionStatus:
		cs, err := parseConnectionStatus(env.Data)
		if err != nil {
			return nil, fmt.Errorf("connection_status: %w", err)
		}
		msg.ConnectionStatus = cs
	case TypeHeartbeat:
		hb, err := parseHeartbeat(env.Data)
		if err != nil {
			return nil, fmt.Errorf("heartbeat: %w", err)
		}
		msg.Heartbeat = hb
	case TypeBetAction, TypeSessionInit, TypeChat:
		return nil, fmt.Errorf("%w: %s", ErrOutboundType, env.Type)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}

	return msg, nil
}

// Serialize encodes a typed message to its wire form. It is the structural
// inverse of Parse: Parse(Serialize(m)) reproduces m for every valid m.
func Serialize(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrEmptyMessage
	}

	var data any
	switch msg.Type {
	case TypeGameStateUpdate:
		data = msg.GameState
	case TypeError:
		data = msg.Error
	case TypeConnectionStatus:
		data = msg.ConnectionStatus
	case TypeHeartbeat:
		data = msg.Heartbeat
	case TypeBetAction:
		data = msg.BetAction
	case TypeSessionInit:
		data = msg.SessionInit
	case TypeChat:
		data = msg.Chat
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, msg.Type)
	}
	if data == nil || isNilPointer(data) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMessage, msg.Type)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", msg.Type, err)
	}

	return json.Marshal(envelope{Type: msg.Type, Data: payload, Token: msg.Token})
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *GameState:
		return p == nil
	case *ErrorData:
		return p == nil
	case *ConnectionStatusData:
		return p == nil
	case *HeartbeatData:
		return p == nil
	case *BetActionData:
		return p == nil
	case *SessionInitData:
		return p == nil
	case *ChatData:
		return p == nil
	}
	return false
}

// NewHeartbeat builds an outbound heartbeat frame carrying now in Unix
// milliseconds.
func NewHeartbeat(now time.Time) *Message {
	return &Message{
		Type:      TypeHeartbeat,
		Heartbeat: &HeartbeatData{Timestamp: now.UnixMilli()},
	}
}

// NewSessionInit builds an outbound session_init frame. Empty arguments are
// omitted from the wire payload; a fully empty payload asks the server for
// a fresh session.
func NewSessionInit(reconnectToken, playerName string) *Message {
	return &Message{
		Type: TypeSessionInit,
		SessionInit: &SessionInitData{
			PlayerName:     playerName,
			ReconnectToken: reconnectToken,
		},
	}
}

// NewBetAction builds a session-authenticated outbound bet_action frame.
// amount may be nil for actions that carry no amount.
func NewBetAction(token string, action BetAction, amount *int) (*Message, error) {
	if !ValidBetAction(action) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return &Message{
		Type:      TypeBetAction,
		Token:     token,
		BetAction: &BetActionData{Action: action, Amount: amount},
	}, nil
}

// requireFields checks that every named key is present in the payload.
func requireFields(data map[string]json.RawMessage, keys ...string) error {
	for _, k := range keys {
		if _, ok := data[k]; !ok {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}

func payloadObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing data")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("data is not an object: %v", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("data is null")
	}
	return obj, nil
}

func parseGameState(raw json.RawMessage) (*GameState, error) {
	obj, err := payloadObject(raw)
	if err != nil {
		return nil, err
	}
	if err := requireFields(obj, "players", "community_cards", "pot", "round", "game_status", "min_bet", "max_bet"); err != nil {
		return nil, err
	}

	var gs GameState
	if err := json.Unmarshal(raw, &gs); err != nil {
		return nil, fmt.Errorf("decode: %v", err)
	}

	if len(gs.Players) != MaxPlayers {
		return nil, fmt.Errorf("players must have exactly %d entries, got %d", MaxPlayers, len(gs.Players))
	}
	if len(gs.CommunityCards) > MaxCommunityCards {
		return nil, fmt.Errorf("too many community cards: %d", len(gs.CommunityCards))
	}
	for _, card := range gs.CommunityCards {
		if !ValidCard(card) {
			return nil, fmt.Errorf("invalid community card %q", card)
		}
	}
	if gs.Pot < 0 {
		return nil, fmt.Errorf("negative pot %d", gs.Pot)
	}
	if !ValidBettingRound(gs.Round) {
		return nil, fmt.Errorf("invalid round %q", gs.Round)
	}
	if !ValidGameStatus(gs.GameStatus) {
		return nil, fmt.Errorf("invalid game_status %q", gs.GameStatus)
	}
	if gs.MinBet < 0 || gs.MaxBet < 0 {
		return nil, fmt.Errorf("negative bet bounds min=%d max=%d", gs.MinBet, gs.MaxBet)
	}
	if gs.CurrentPlayer != nil && !ValidPlayerID(*gs.CurrentPlayer) {
		return nil, fmt.Errorf("invalid current_player %q", *gs.CurrentPlayer)
	}

	for i, p := range gs.Players {
		if !ValidPlayerID(p.PlayerID) {
			return nil, fmt.Errorf("player %d: invalid player_id %q", i, p.PlayerID)
		}
		if p.ChipStack < 0 {
			return nil, fmt.Errorf("player %s: negative chip_stack %d", p.PlayerID, p.ChipStack)
		}
		if p.CurrentBet < 0 {
			return nil, fmt.Errorf("player %s: negative current_bet %d", p.PlayerID, p.CurrentBet)
		}
		for _, card := range p.HoleCards {
			// Hidden cards arrive as empty strings.
			if card == "" {
				continue
			}
			if !ValidCard(card) {
				return nil, fmt.Errorf("player %s: invalid hole card %q", p.PlayerID, card)
			}
		}
	}

	return &gs, nil
}

func parseError(raw json.RawMessage) (*ErrorData, error) {
	obj, err := payloadObject(raw)
	if err != nil {
		return nil, err
	}
	if err := requireFields(obj, "code", "message"); err != nil {
		return nil, err
	}

	var e ErrorData
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode: %v", err)
	}
	if e.Code == "" {
		return nil, fmt.Errorf("empty code")
	}
	return &e, nil
}

func parseConnectionStatus(raw json.RawMessage) (*ConnectionStatusData, error) {
	obj, err := payloadObject(raw)
	if err != nil {
		return nil, err
	}
	if err := requireFields(obj, "status"); err != nil {
		return nil, err
	}

	var cs ConnectionStatusData
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("decode: %v", err)
	}
	if !ValidConnectionStatus(cs.Status) {
		return nil, fmt.Errorf("invalid status %q", cs.Status)
	}
	if cs.PlayerID != "" && !ValidPlayerID(cs.PlayerID) {
		return nil, fmt.Errorf("invalid player_id %q", cs.PlayerID)
	}
	return &cs, nil
}

func parseHeartbeat(raw json.RawMessage) (*HeartbeatData, error) {
	obj, err := payloadObject(raw)
	if err != nil {
		return nil, err
	}
	if err := requireFields(obj, "timestamp"); err != nil {
		return nil, err
	}

	var hb HeartbeatData
	if err := json.Unmarshal(raw, &hb); err != nil {
		return nil, fmt.Errorf("decode: %v", err)
	}
	if hb.Timestamp < 0 {
		return nil, fmt.Errorf("negative timestamp %d", hb.Timestamp)
	}
	return &hb, nil
}
