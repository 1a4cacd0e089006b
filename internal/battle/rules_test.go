package battle

import (
	"errors"
	"testing"
)

func twoCardBattle(hp1, atk1, hp2, atk2 int) *Battle {
	return &Battle{
		ID:          "btl-test",
		State:       StateActive,
		PlayerOneID: "u1",
		PlayerTwoID: "u2",
		PlayerOneCards: []BattleCard{
			{ID: "c1", CardID: "k1", MaxHP: hp1, Attack: atk1, CurrentHP: hp1},
		},
		PlayerTwoCards: []BattleCard{
			{ID: "c2", CardID: "k2", MaxHP: hp2, Attack: atk2, CurrentHP: hp2},
		},
		Rounds: []Round{{}},
	}
}

func submitBoth(b *Battle) *Round {
	r := b.CurrentRound()
	r.PlayerOneCard = &PlayedCard{BattleCardID: "c1", RoundStartHP: b.PlayerOneCards[0].CurrentHP}
	r.PlayerTwoCard = &PlayedCard{BattleCardID: "c2", RoundStartHP: b.PlayerTwoCards[0].CurrentHP}
	return r
}

func TestCloseRound_SimultaneousDamage(t *testing.T) {
	b := twoCardBattle(50, 10, 30, 20)
	r := submitBoth(b)
	if err := closeRound(b, r); err != nil {
		t.Fatalf("closeRound: %v", err)
	}
	if got := b.PlayerOneCards[0].CurrentHP; got != 30 {
		t.Fatalf("player one card hp = %d, want 30", got)
	}
	if got := b.PlayerTwoCards[0].CurrentHP; got != 20 {
		t.Fatalf("player two card hp = %d, want 20", got)
	}
	if r.PlayerOneCard.RoundEndHP == nil || *r.PlayerOneCard.RoundEndHP != 30 {
		t.Fatalf("round end hp not recorded for player one: %v", r.PlayerOneCard.RoundEndHP)
	}
	if r.PlayerTwoCard.RoundEndHP == nil || *r.PlayerTwoCard.RoundEndHP != 20 {
		t.Fatalf("round end hp not recorded for player two: %v", r.PlayerTwoCard.RoundEndHP)
	}
	if !r.Closed() {
		t.Fatalf("round should report closed")
	}
}

func TestCloseRound_FloorsAtZeroAndFlagsDeath(t *testing.T) {
	b := twoCardBattle(5, 10, 60, 20)
	r := submitBoth(b)
	if err := closeRound(b, r); err != nil {
		t.Fatalf("closeRound: %v", err)
	}
	c1 := b.PlayerOneCards[0]
	if c1.CurrentHP != 0 || !c1.IsDead {
		t.Fatalf("expected player one card dead at 0 hp, got hp=%d dead=%v", c1.CurrentHP, c1.IsDead)
	}
	c2 := b.PlayerTwoCards[0]
	if c2.CurrentHP != 50 || c2.IsDead {
		t.Fatalf("expected player two card at 50 hp alive, got hp=%d dead=%v", c2.CurrentHP, c2.IsDead)
	}
}

func TestSettleAfterClose_BothAliveAppendsRound(t *testing.T) {
	b := twoCardBattle(50, 10, 30, 20)
	r := submitBoth(b)
	if err := closeRound(b, r); err != nil {
		t.Fatalf("closeRound: %v", err)
	}
	if err := settleAfterClose(b); err != nil {
		t.Fatalf("settleAfterClose: %v", err)
	}
	if b.State != StateActive {
		t.Fatalf("state = %s, want ACTIVE", b.State)
	}
	if len(b.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2", len(b.Rounds))
	}
	last := b.CurrentRound()
	if last.PlayerOneCard != nil || last.PlayerTwoCard != nil {
		t.Fatalf("new round should be empty")
	}
}

func TestSettleAfterClose_OneSideExhausted(t *testing.T) {
	b := twoCardBattle(50, 10, 5, 5)
	r := submitBoth(b)
	if err := closeRound(b, r); err != nil {
		t.Fatalf("closeRound: %v", err)
	}
	if err := settleAfterClose(b); err != nil {
		t.Fatalf("settleAfterClose: %v", err)
	}
	if b.State != StateCompleted {
		t.Fatalf("state = %s, want COMPLETED", b.State)
	}
	if b.WinnerID != "u1" {
		t.Fatalf("winner = %q, want u1", b.WinnerID)
	}
	if len(b.Rounds) != 1 {
		t.Fatalf("no round should be appended after a terminal close, got %d", len(b.Rounds))
	}
}

func TestSettleAfterClose_BothExhaustedTies(t *testing.T) {
	b := twoCardBattle(10, 15, 10, 15)
	r := submitBoth(b)
	if err := closeRound(b, r); err != nil {
		t.Fatalf("closeRound: %v", err)
	}
	if err := settleAfterClose(b); err != nil {
		t.Fatalf("settleAfterClose: %v", err)
	}
	if b.State != StateTied {
		t.Fatalf("state = %s, want TIED", b.State)
	}
	if b.WinnerID != "" {
		t.Fatalf("tied battle must have no winner, got %q", b.WinnerID)
	}
}

func TestCanTransition_ForwardEdgesOnly(t *testing.T) {
	allowed := map[State][]State{
		StateRequested: {StateActive, StateRejected},
		StateActive:    {StateCompleted, StateTied, StateForfeited},
	}
	all := []State{StateRequested, StateActive, StateRejected, StateCompleted, StateTied, StateForfeited}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			if got := canTransition(from, to); got != want {
				t.Fatalf("canTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransition_RejectsIllegalEdge(t *testing.T) {
	b := &Battle{State: StateCompleted}
	if err := transition(b, StateActive); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if b.State != StateCompleted {
		t.Fatalf("state must not change on rejected transition, got %s", b.State)
	}
}
