package battle

import (
	"time"
)

// State represents a battle lifecycle state.
type State string

const (
	StateRequested State = "REQUESTED"
	StateActive    State = "ACTIVE"
	StateRejected  State = "REJECTED"
	StateCompleted State = "COMPLETED"
	StateTied      State = "TIED"
	StateForfeited State = "FORFEITED"
)

// Terminal reports whether no further transition is permitted from s.
func (s State) Terminal() bool {
	switch s {
	case StateRejected, StateCompleted, StateTied, StateForfeited:
		return true
	}
	return false
}

// BattleCard is a card instance bound to one battle. HP is mutable and
// tracked separately from the immutable catalog card it was built from.
type BattleCard struct {
	ID        string `json:"id"`
	CardID    string `json:"card_id"`
	Name      string `json:"name"`
	Rarity    string `json:"rarity"`
	MaxHP     int    `json:"max_hp"`
	Attack    int    `json:"attack"`
	CurrentHP int    `json:"current_hp"`
	IsDead    bool   `json:"is_dead"`
}

// PlayedCard records one player's submission for a round. RoundEndHP stays
// nil until the round closes.
type PlayedCard struct {
	BattleCardID string `json:"battle_card_id"`
	RoundStartHP int    `json:"round_start_hp"`
	RoundEndHP   *int   `json:"round_end_hp,omitempty"`
}

// Round is one exchange. It closes when both card slots are filled.
type Round struct {
	PlayerOneCard   *PlayedCard `json:"player_one_card,omitempty"`
	PlayerTwoCard   *PlayedCard `json:"player_two_card,omitempty"`
	PlayerOneViewed bool        `json:"player_one_viewed"`
	PlayerTwoViewed bool        `json:"player_two_viewed"`
}

// Closed reports whether both plays are in and damage has been applied.
func (r *Round) Closed() bool {
	return r != nil &&
		r.PlayerOneCard != nil && r.PlayerOneCard.RoundEndHP != nil &&
		r.PlayerTwoCard != nil && r.PlayerTwoCard.RoundEndHP != nil
}

// Battle is the persisted aggregate for a two-player card battle.
type Battle struct {
	ID             string       `json:"id"`
	State          State        `json:"state"`
	PlayerOneID    string       `json:"player_one_id"`
	PlayerTwoID    string       `json:"player_two_id"`
	PlayerOneCards []BattleCard `json:"player_one_cards"`
	PlayerTwoCards []BattleCard `json:"player_two_cards"`
	Rounds         []Round      `json:"rounds"`
	WinnerID       string       `json:"winner_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// HasPlayer reports whether userID is one of the two participants.
func (b *Battle) HasPlayer(userID string) bool {
	return userID != "" && (b.PlayerOneID == userID || b.PlayerTwoID == userID)
}

// OpponentOf returns the other participant's id, or "" for a non-participant.
func (b *Battle) OpponentOf(userID string) string {
	switch userID {
	case b.PlayerOneID:
		return b.PlayerTwoID
	case b.PlayerTwoID:
		return b.PlayerOneID
	}
	return ""
}

// CurrentRound returns the last (open or just-closed) round, nil before start.
func (b *Battle) CurrentRound() *Round {
	if len(b.Rounds) == 0 {
		return nil
	}
	return &b.Rounds[len(b.Rounds)-1]
}

// LastClosedRound returns the most recently closed round, nil if none closed yet.
func (b *Battle) LastClosedRound() *Round {
	for i := len(b.Rounds) - 1; i >= 0; i-- {
		if b.Rounds[i].Closed() {
			return &b.Rounds[i]
		}
	}
	return nil
}

// cardsOf returns the battle card slice for the given participant.
func (b *Battle) cardsOf(userID string) []BattleCard {
	switch userID {
	case b.PlayerOneID:
		return b.PlayerOneCards
	case b.PlayerTwoID:
		return b.PlayerTwoCards
	}
	return nil
}
