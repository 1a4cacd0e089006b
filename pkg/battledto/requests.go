package battledto

// RequestBattleRequest opens a battle against another user.
type RequestBattleRequest struct {
	TargetUserID string `json:"target_user_id"`
}

// PlayCardRequest submits one battle card for the current round.
type PlayCardRequest struct {
	BattleCardID string `json:"battle_card_id"`
}

// SetDeckRequest replaces the caller's configured deck.
type SetDeckRequest struct {
	CardIDs []string `json:"card_ids"`
}
