package battledto

import "time"

// BattleCardView mirrors one card instance inside a battle.
type BattleCardView struct {
	ID        string `json:"id"`
	CardID    string `json:"card_id"`
	Name      string `json:"name"`
	Rarity    string `json:"rarity"`
	MaxHP     int    `json:"max_hp"`
	Attack    int    `json:"attack"`
	CurrentHP int    `json:"current_hp"`
	IsDead    bool   `json:"is_dead"`
}

// PlayedCardView is one player's submission for a round.
type PlayedCardView struct {
	BattleCardID string `json:"battle_card_id"`
	RoundStartHP int    `json:"round_start_hp"`
	RoundEndHP   *int   `json:"round_end_hp,omitempty"`
}

type RoundView struct {
	PlayerOneCard   *PlayedCardView `json:"player_one_card,omitempty"`
	PlayerTwoCard   *PlayedCardView `json:"player_two_card,omitempty"`
	PlayerOneViewed bool            `json:"player_one_viewed"`
	PlayerTwoViewed bool            `json:"player_two_viewed"`
	Closed          bool            `json:"closed"`
}

type BattleView struct {
	ID             string           `json:"id"`
	State          string           `json:"state"`
	PlayerOneID    string           `json:"player_one_id"`
	PlayerTwoID    string           `json:"player_two_id"`
	PlayerOneCards []BattleCardView `json:"player_one_cards"`
	PlayerTwoCards []BattleCardView `json:"player_two_cards"`
	Rounds         []RoundView      `json:"rounds"`
	WinnerID       string           `json:"winner_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// BattleListResponse wraps userBattles plus its derived request views.
type BattleListResponse struct {
	Battles  []BattleView `json:"battles"`
	Sent     []BattleView `json:"sent_requests"`
	Received []BattleView `json:"received_requests"`
}
