package battle

// Pure round-resolution rules. Everything here mutates only the aggregate
// passed in; persistence and locking live in the manager.

// transitions lists the permitted lifecycle edges.
var transitions = map[State][]State{
	StateRequested: {StateActive, StateRejected},
	StateActive:    {StateCompleted, StateTied, StateForfeited},
}

// canTransition reports whether from → to is a legal lifecycle edge.
func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves the battle to a new state, guarding against illegal edges.
func transition(b *Battle, to State) error {
	if !canTransition(b.State, to) {
		return ErrInvalidState
	}
	b.State = to
	return nil
}

// findCard returns a pointer into cards for the given battle card id.
func findCard(cards []BattleCard, id string) *BattleCard {
	for i := range cards {
		if cards[i].ID == id {
			return &cards[i]
		}
	}
	return nil
}

// applyDamage reduces a card's HP, floored at zero, and flags death.
func applyDamage(c *BattleCard, dmg int) {
	if dmg < 0 {
		dmg = 0
	}
	c.CurrentHP -= dmg
	if c.CurrentHP <= 0 {
		c.CurrentHP = 0
		c.IsDead = true
	}
}

// exhausted reports whether a side has no living card left.
func exhausted(cards []BattleCard) bool {
	for i := range cards {
		if !cards[i].IsDead {
			return false
		}
	}
	return true
}

// closeRound applies simultaneous damage for a round with both plays in and
// records end-of-round HP on both plays. Damage is computed from pre-damage
// HP on both sides, so application order does not matter.
func closeRound(b *Battle, r *Round) error {
	if r == nil || r.PlayerOneCard == nil || r.PlayerTwoCard == nil {
		return ErrInvalidState
	}
	c1 := findCard(b.PlayerOneCards, r.PlayerOneCard.BattleCardID)
	c2 := findCard(b.PlayerTwoCards, r.PlayerTwoCard.BattleCardID)
	if c1 == nil || c2 == nil {
		return ErrNotFound
	}
	applyDamage(c1, c2.Attack)
	applyDamage(c2, c1.Attack)
	end1, end2 := c1.CurrentHP, c2.CurrentHP
	r.PlayerOneCard.RoundEndHP = &end1
	r.PlayerTwoCard.RoundEndHP = &end2
	return nil
}

// settleAfterClose computes the outcome of a just-closed round: a terminal
// state with winner when one or both sides are exhausted, otherwise a fresh
// empty round is appended and the battle stays active.
func settleAfterClose(b *Battle) error {
	oneOut := exhausted(b.PlayerOneCards)
	twoOut := exhausted(b.PlayerTwoCards)
	switch {
	case oneOut && twoOut:
		return transition(b, StateTied)
	case oneOut:
		if err := transition(b, StateCompleted); err != nil {
			return err
		}
		b.WinnerID = b.PlayerTwoID
	case twoOut:
		if err := transition(b, StateCompleted); err != nil {
			return err
		}
		b.WinnerID = b.PlayerOneID
	default:
		b.Rounds = append(b.Rounds, Round{})
	}
	return nil
}
