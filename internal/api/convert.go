package api

import (
	"github.com/kapu/poke-battle-go/internal/battle"
	"github.com/kapu/poke-battle-go/pkg/battledto"
)

func toBattleView(b *battle.Battle) battledto.BattleView {
	v := battledto.BattleView{
		ID:             b.ID,
		State:          string(b.State),
		PlayerOneID:    b.PlayerOneID,
		PlayerTwoID:    b.PlayerTwoID,
		PlayerOneCards: toCardViews(b.PlayerOneCards),
		PlayerTwoCards: toCardViews(b.PlayerTwoCards),
		WinnerID:       b.WinnerID,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	v.Rounds = make([]battledto.RoundView, 0, len(b.Rounds))
	for i := range b.Rounds {
		r := &b.Rounds[i]
		v.Rounds = append(v.Rounds, battledto.RoundView{
			PlayerOneCard:   toPlayedCardView(r.PlayerOneCard),
			PlayerTwoCard:   toPlayedCardView(r.PlayerTwoCard),
			PlayerOneViewed: r.PlayerOneViewed,
			PlayerTwoViewed: r.PlayerTwoViewed,
			Closed:          r.Closed(),
		})
	}
	return v
}

func toBattleViews(battles []*battle.Battle) []battledto.BattleView {
	out := make([]battledto.BattleView, 0, len(battles))
	for _, b := range battles {
		out = append(out, toBattleView(b))
	}
	return out
}

func toCardViews(cards []battle.BattleCard) []battledto.BattleCardView {
	out := make([]battledto.BattleCardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, battledto.BattleCardView{
			ID:        c.ID,
			CardID:    c.CardID,
			Name:      c.Name,
			Rarity:    c.Rarity,
			MaxHP:     c.MaxHP,
			Attack:    c.Attack,
			CurrentHP: c.CurrentHP,
			IsDead:    c.IsDead,
		})
	}
	return out
}

func toPlayedCardView(p *battle.PlayedCard) *battledto.PlayedCardView {
	if p == nil {
		return nil
	}
	return &battledto.PlayedCardView{
		BattleCardID: p.BattleCardID,
		RoundStartHP: p.RoundStartHP,
		RoundEndHP:   p.RoundEndHP,
	}
}
