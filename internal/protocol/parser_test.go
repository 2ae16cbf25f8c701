package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func validSnapshot() *GameState {
	acting := "p1"
	return &GameState{
		Players: []PlayerState{
			{
				PlayerID:      "p1",
				ChipStack:     1450,
				HoleCards:     []string{"Ah", "Kd"},
				Position:      PositionButton,
				CurrentBet:    50,
				IsActive:      true,
				TimeRemaining: 30000,
			},
			{
				PlayerID:      "p2",
				ChipStack:     1500,
				HoleCards:     []string{"", ""},
				Position:      PositionBigBlind,
				CurrentBet:    100,
				IsActive:      true,
				TimeRemaining: 30000,
			},
		},
		CommunityCards: []string{"7c", "Td", "Qs"},
		Pot:            150,
		CurrentPlayer:  &acting,
		TimeRemaining:  30000,
		Round:          RoundFlop,
		MinBet:         50,
		MaxBet:         1450,
		GameStatus:     StatusActive,
	}
}

func TestParseSerializeRoundTrip(t *testing.T) {
	amount := 200
	tests := []struct {
		name string
		msg  *Message
	}{
		{
			name: "game_state_update",
			msg:  &Message{Type: TypeGameStateUpdate, GameState: validSnapshot()},
		},
		{
			name: "error",
			msg: &Message{Type: TypeError, Error: &ErrorData{
				Code:    "out_of_turn",
				Message: "not your turn",
				Details: map[string]any{"current_player": "p2"},
			}},
		},
		{
			name: "connection_status",
			msg: &Message{Type: TypeConnectionStatus, ConnectionStatus: &ConnectionStatusData{
				Status:   "reconnecting",
				PlayerID: "p2",
				Message:  "opponent reconnecting",
			}},
		},
		{
			name: "heartbeat",
			msg:  &Message{Type: TypeHeartbeat, Heartbeat: &HeartbeatData{Timestamp: 1705328200123}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Serialize(tt.msg)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			got, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, tt.msg)
			}
		})
	}

	// Outbound frames must serialize even though Parse rejects them inbound.
	bet, err := NewBetAction("tok-123", ActionRaise, &amount)
	if err != nil {
		t.Fatalf("NewBetAction failed: %v", err)
	}
	raw, err := Serialize(bet)
	if err != nil {
		t.Fatalf("Serialize bet_action failed: %v", err)
	}
	if !strings.Contains(string(raw), `"token":"tok-123"`) {
		t.Errorf("bet_action missing token: %s", raw)
	}
	if !strings.Contains(string(raw), `"amount":200`) {
		t.Errorf("bet_action missing amount: %s", raw)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"hello"`, `42`, `null`, `not json`, ``} {
		if msg, err := Parse([]byte(raw)); err == nil {
			t.Errorf("Parse(%q) = %+v, want error", raw, msg)
		}
	}
}

func TestParseRejectsMissingType(t *testing.T) {
	for _, raw := range []string{`{}`, `{"data":{}}`, `{"type":42,"data":{}}`, `{"type":"","data":{}}`} {
		if msg, err := Parse([]byte(raw)); err == nil {
			t.Errorf("Parse(%q) = %+v, want error", raw, msg)
		}
	}
}

func TestParseRejectsOutboundTypes(t *testing.T) {
	frames := []string{
		`{"type":"bet_action","data":{"action":"check"},"token":"t"}`,
		`{"type":"session_init","data":{}}`,
		`{"type":"chat_message","data":{"player_id":"p1","message":"hi","timestamp":1}}`,
	}
	for _, raw := range frames {
		_, err := Parse([]byte(raw))
		if !errors.Is(err, ErrOutboundType) {
			t.Errorf("Parse(%s) err = %v, want ErrOutboundType", raw, err)
		}
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`{"type":"shuffle","data":{}}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestParseGameStateUpdateInvalid(t *testing.T) {
	mutate := func(f func(gs *GameState)) []byte {
		gs := validSnapshot()
		f(gs)
		raw, err := Serialize(&Message{Type: TypeGameStateUpdate, GameState: gs})
		if err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		return raw
	}

	tests := []struct {
		name string
		raw  []byte
	}{
		{"missing data", []byte(`{"type":"game_state_update"}`)},
		{"data not object", []byte(`{"type":"game_state_update","data":[1,2]}`)},
		{"data null", []byte(`{"type":"game_state_update","data":null}`)},
		{"missing players", []byte(`{"type":"game_state_update","data":{"community_cards":[],"pot":0,"round":"preflop","game_status":"waiting","min_bet":0,"max_bet":0}}`)},
		{"missing pot", []byte(`{"type":"game_state_update","data":{"players":[],"community_cards":[],"round":"preflop","game_status":"waiting","min_bet":0,"max_bet":0}}`)},
		{"pot wrong type", []byte(`{"type":"game_state_update","data":{"players":[],"community_cards":[],"pot":"big","round":"preflop","game_status":"waiting","min_bet":0,"max_bet":0}}`)},
		{"one player", mutate(func(gs *GameState) { gs.Players = gs.Players[:1] })},
		{"three players", mutate(func(gs *GameState) { gs.Players = append(gs.Players, gs.Players[0]) })},
		{"bad player id", mutate(func(gs *GameState) { gs.Players[0].PlayerID = "p3" })},
		{"negative chip stack", mutate(func(gs *GameState) { gs.Players[1].ChipStack = -1 })},
		{"negative current bet", mutate(func(gs *GameState) { gs.Players[0].CurrentBet = -5 })},
		{"bad hole card", mutate(func(gs *GameState) { gs.Players[0].HoleCards = []string{"Ah", "1x"} })},
		{"six community cards", mutate(func(gs *GameState) {
			gs.CommunityCards = []string{"2c", "3c", "4c", "5c", "6c", "7c"}
		})},
		{"bad community card", mutate(func(gs *GameState) { gs.CommunityCards = []string{"Zz"} })},
		{"negative pot", mutate(func(gs *GameState) { gs.Pot = -1 })},
		{"bad round", mutate(func(gs *GameState) { gs.Round = "pre-pre-flop" })},
		{"bad game status", mutate(func(gs *GameState) { gs.GameStatus = "paused" })},
		{"negative min bet", mutate(func(gs *GameState) { gs.MinBet = -10 })},
		{"negative max bet", mutate(func(gs *GameState) { gs.MaxBet = -10 })},
		{"bad current player", mutate(func(gs *GameState) { p := "p9"; gs.CurrentPlayer = &p })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg, err := Parse(tt.raw); err == nil {
				t.Errorf("Parse accepted %s: %+v", tt.raw, msg)
			}
		})
	}
}

func TestParseErrorInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing data", `{"type":"error"}`},
		{"missing code", `{"type":"error","data":{"message":"boom"}}`},
		{"missing message", `{"type":"error","data":{"code":"internal"}}`},
		{"code wrong type", `{"type":"error","data":{"code":500,"message":"boom"}}`},
		{"message wrong type", `{"type":"error","data":{"code":"internal","message":[]}}`},
		{"empty code", `{"type":"error","data":{"code":"","message":"boom"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg, err := Parse([]byte(tt.raw)); err == nil {
				t.Errorf("Parse accepted %s: %+v", tt.raw, msg)
			}
		})
	}
}

func TestParseConnectionStatusInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing data", `{"type":"connection_status"}`},
		{"missing status", `{"type":"connection_status","data":{"player_id":"p1"}}`},
		{"unknown status", `{"type":"connection_status","data":{"status":"zombie"}}`},
		{"status wrong type", `{"type":"connection_status","data":{"status":7}}`},
		{"bad player id", `{"type":"connection_status","data":{"status":"connected","player_id":"dealer"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg, err := Parse([]byte(tt.raw)); err == nil {
				t.Errorf("Parse accepted %s: %+v", tt.raw, msg)
			}
		})
	}
}

func TestParseHeartbeatInvalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing data", `{"type":"heartbeat"}`},
		{"missing timestamp", `{"type":"heartbeat","data":{}}`},
		{"timestamp wrong type", `{"type":"heartbeat","data":{"timestamp":"now"}}`},
		{"negative timestamp", `{"type":"heartbeat","data":{"timestamp":-5}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg, err := Parse([]byte(tt.raw)); err == nil {
				t.Errorf("Parse accepted %s: %+v", tt.raw, msg)
			}
		})
	}
}

func TestParseOptionalFields(t *testing.T) {
	raw := `{"type":"connection_status","data":{"status":"connected"}}`
	msg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if msg.ConnectionStatus.PlayerID != "" {
		t.Errorf("PlayerID = %q, want empty", msg.ConnectionStatus.PlayerID)
	}

	raw = `{"type":"game_state_update","data":{"players":[` +
		`{"player_id":"p1","chip_stack":100,"hole_cards":[],"position":"none","current_bet":0,"is_active":true,"is_folded":false,"is_all_in":false,"time_remaining":0},` +
		`{"player_id":"p2","chip_stack":100,"hole_cards":[],"position":"none","current_bet":0,"is_active":true,"is_folded":false,"is_all_in":false,"time_remaining":0}],` +
		`"community_cards":[],"pot":0,"current_player":null,"time_remaining":0,"round":"preflop","min_bet":0,"max_bet":0,"game_status":"waiting"}}`
	msg, err = Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if msg.GameState.CurrentPlayer != nil {
		t.Errorf("CurrentPlayer = %v, want nil", *msg.GameState.CurrentPlayer)
	}
}

func TestValidCard(t *testing.T) {
	valid := []string{"2c", "9d", "Th", "Js", "Qc", "Kd", "Ah"}
	for _, c := range valid {
		if !ValidCard(c) {
			t.Errorf("ValidCard(%q) = false, want true", c)
		}
	}
	invalid := []string{"", "A", "Ahh", "1c", "Tc ", "aD", "AH", "Xs", "A♥"}
	for _, c := range invalid {
		if ValidCard(c) {
			t.Errorf("ValidCard(%q) = true, want false", c)
		}
	}
}

func TestNewHeartbeat(t *testing.T) {
	now := time.UnixMilli(1705328200123)
	msg := NewHeartbeat(now)
	if msg.Heartbeat.Timestamp != 1705328200123 {
		t.Errorf("Timestamp = %d, want 1705328200123", msg.Heartbeat.Timestamp)
	}
}

func TestNewBetActionRejectsUnknownAction(t *testing.T) {
	if _, err := NewBetAction("tok", "all_in_blind", nil); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want ErrInvalidAction", err)
	}
}

func TestNewSessionInitOmitsEmptyFields(t *testing.T) {
	raw, err := Serialize(NewSessionInit("", ""))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	want := `{"type":"session_init","data":{}}`
	if string(raw) != want {
		t.Errorf("got %s, want %s", raw, want)
	}

	raw, err = Serialize(NewSessionInit("tok-1", ""))
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(string(raw), `"reconnect_token":"tok-1"`) {
		t.Errorf("missing reconnect_token: %s", raw)
	}
}

func TestSerializeRejectsEmptyMessage(t *testing.T) {
	if _, err := Serialize(nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Serialize(nil) err = %v, want ErrEmptyMessage", err)
	}
	if _, err := Serialize(&Message{Type: TypeHeartbeat}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Serialize(no payload) err = %v, want ErrEmptyMessage", err)
	}
}
