package api

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"github.com/kapu/poke-battle-go/internal/battle"
	"github.com/kapu/poke-battle-go/pkg/battledto"
)

func (s *Server) handleRequestBattle(ctx *fasthttp.RequestCtx, userID string) {
	var req battledto.RequestBattleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeErrorStatus(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "invalid JSON body", false)
		return
	}
	b, err := s.mgr.RequestBattle(ctx, userID, req.TargetUserID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, toBattleView(b))
}

func (s *Server) handleAccept(ctx *fasthttp.RequestCtx, battleID, userID string) {
	b, err := s.mgr.AcceptBattle(ctx, battleID, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handleReject(ctx *fasthttp.RequestCtx, battleID, userID string) {
	b, err := s.mgr.RejectBattle(ctx, battleID, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handleForfeit(ctx *fasthttp.RequestCtx, battleID, userID string) {
	b, err := s.mgr.ForfeitBattle(ctx, battleID, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handlePlay(ctx *fasthttp.RequestCtx, battleID, userID string) {
	var req battledto.PlayCardRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeErrorStatus(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "invalid JSON body", false)
		return
	}
	b, err := s.mgr.PlayCard(ctx, battleID, userID, req.BattleCardID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handleView(ctx *fasthttp.RequestCtx, battleID, userID string) {
	b, err := s.mgr.ViewBattle(ctx, battleID, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handleGetBattle(ctx *fasthttp.RequestCtx, battleID, userID string) {
	b, err := s.mgr.GetBattle(ctx, battleID, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, toBattleView(b))
}

func (s *Server) handleUserBattles(ctx *fasthttp.RequestCtx, userID string) {
	battles, err := s.mgr.UserBattles(ctx, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	resp := battledto.BattleListResponse{
		Battles:  toBattleViews(battles),
		Sent:     toBattleViews(battle.SentRequests(battles, userID)),
		Received: toBattleViews(battle.ReceivedRequests(battles, userID)),
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleSetDeck(ctx *fasthttp.RequestCtx, userID string) {
	var req battledto.SetDeckRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeErrorStatus(ctx, fasthttp.StatusBadRequest, battledto.CodeBadRequest, "invalid JSON body", false)
		return
	}
	if err := s.decks.SetDeck(ctx, userID, req.CardIDs); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleListCards(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, s.cat.Cards())
}
