package game

import (
	"reflect"
	"testing"

	"github.com/cardroom/poker-client/internal/protocol"
)

func snapshot(current string, mutate func(*protocol.GameState)) *protocol.GameState {
	gs := &protocol.GameState{
		Players: []protocol.PlayerState{
			{PlayerID: "p1", ChipStack: 1000, Position: protocol.PositionButton, IsActive: true},
			{PlayerID: "p2", ChipStack: 1000, Position: protocol.PositionBigBlind, IsActive: true},
		},
		CommunityCards: []string{},
		Round:          protocol.RoundPreflop,
		MinBet:         50,
		MaxBet:         1000,
		GameStatus:     protocol.StatusActive,
	}
	if current != "" {
		gs.CurrentPlayer = &current
	}
	if mutate != nil {
		mutate(gs)
	}
	return gs
}

func TestStore_EmptyState(t *testing.T) {
	s := NewStore("p1", nil)

	if s.State() != nil {
		t.Error("State non-nil before first snapshot")
	}
	if s.IsMyTurn() {
		t.Error("IsMyTurn true before first snapshot")
	}
	if s.AvailableActions() != nil {
		t.Error("AvailableActions non-nil before first snapshot")
	}
	if s.MyPlayer() != nil || s.Opponent() != nil {
		t.Error("player accessors non-nil before first snapshot")
	}
}

func TestStore_ApplyReplacesSnapshot(t *testing.T) {
	s := NewStore("p1", nil)

	s.Apply(snapshot("p1", nil))
	s.Apply(snapshot("p2", func(gs *protocol.GameState) {
		gs.Pot = 300
		gs.Round = protocol.RoundFlop
	}))

	gs := s.State()
	if gs.Pot != 300 || gs.Round != protocol.RoundFlop {
		t.Errorf("latest snapshot not retained: pot=%d round=%s", gs.Pot, gs.Round)
	}
	if s.UpdatedAt().IsZero() {
		t.Error("UpdatedAt zero after Apply")
	}

	s.Apply(nil)
	if s.State() != gs {
		t.Error("nil Apply replaced the snapshot")
	}
}

func TestStore_PlayerAccessors(t *testing.T) {
	s := NewStore("p1", nil)
	s.Apply(snapshot("p1", func(gs *protocol.GameState) {
		gs.Players[0].ChipStack = 700
		gs.Players[1].ChipStack = 1300
	}))

	me := s.MyPlayer()
	if me == nil || me.PlayerID != "p1" || me.ChipStack != 700 {
		t.Errorf("MyPlayer = %+v", me)
	}
	opp := s.Opponent()
	if opp == nil || opp.PlayerID != "p2" || opp.ChipStack != 1300 {
		t.Errorf("Opponent = %+v", opp)
	}

	s.SetPlayerID("p2")
	if me := s.MyPlayer(); me == nil || me.PlayerID != "p2" {
		t.Errorf("MyPlayer after reseat = %+v", me)
	}
}

func TestStore_IsMyTurn(t *testing.T) {
	tests := []struct {
		name     string
		playerID string
		snap     *protocol.GameState
		want     bool
	}{
		{"our turn", "p1", snapshot("p1", nil), true},
		{"opponent turn", "p1", snapshot("p2", nil), false},
		{"no acting player", "p1", snapshot("", nil), false},
		{"unknown seat", "", snapshot("p1", nil), false},
		{"waiting game", "p1", snapshot("p1", func(gs *protocol.GameState) {
			gs.GameStatus = protocol.StatusWaiting
		}), false},
		{"finished game", "p1", snapshot("p1", func(gs *protocol.GameState) {
			gs.GameStatus = protocol.StatusFinished
		}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.playerID, nil)
			s.Apply(tt.snap)
			if got := s.IsMyTurn(); got != tt.want {
				t.Errorf("IsMyTurn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_AvailableActions(t *testing.T) {
	tests := []struct {
		name string
		snap *protocol.GameState
		want []protocol.BetAction
	}{
		{
			"no outstanding bet",
			snapshot("p1", nil),
			[]protocol.BetAction{protocol.ActionFold, protocol.ActionCheck, protocol.ActionRaise},
		},
		{
			"facing a bet",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.Players[1].CurrentBet = 100
			}),
			[]protocol.BetAction{protocol.ActionFold, protocol.ActionCall, protocol.ActionRaise},
		},
		{
			"bets level after call",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.Players[0].CurrentBet = 100
				gs.Players[1].CurrentBet = 100
			}),
			[]protocol.BetAction{protocol.ActionFold, protocol.ActionCheck, protocol.ActionRaise},
		},
		{
			"stack only covers the call",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.Players[0].ChipStack = 100
				gs.Players[1].CurrentBet = 100
			}),
			[]protocol.BetAction{protocol.ActionFold, protocol.ActionCall},
		},
		{
			"not our turn",
			snapshot("p2", nil),
			nil,
		},
		{
			"already folded",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.Players[0].IsFolded = true
			}),
			nil,
		},
		{
			"all in",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.Players[0].IsAllIn = true
				gs.Players[0].ChipStack = 0
			}),
			nil,
		},
		{
			"game not active",
			snapshot("p1", func(gs *protocol.GameState) {
				gs.GameStatus = protocol.StatusFinished
			}),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore("p1", nil)
			s.Apply(tt.snap)
			if got := s.AvailableActions(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AvailableActions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_LastError(t *testing.T) {
	s := NewStore("p1", nil)

	if s.LastError() != nil {
		t.Error("LastError non-nil on a fresh store")
	}

	s.SetError(&protocol.ErrorData{Code: "out_of_turn", Message: "wait"})
	if e := s.LastError(); e == nil || e.Code != "out_of_turn" {
		t.Errorf("LastError = %+v", e)
	}

	s.ClearError()
	if s.LastError() != nil {
		t.Error("LastError survived ClearError")
	}
}
