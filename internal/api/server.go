package api

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/poke-battle-go/internal/battle"
	"github.com/kapu/poke-battle-go/internal/catalog"
	"github.com/kapu/poke-battle-go/internal/collection"
	"github.com/kapu/poke-battle-go/internal/obslog"
	"github.com/kapu/poke-battle-go/pkg/battledto"
)

// Server exposes the battle operations as a JSON-over-HTTP surface. The
// acting user comes from the X-User-Id header; authentication itself is the
// upstream gateway's job.
type Server struct {
	mgr   *battle.Manager
	decks *collection.Service
	cat   *catalog.Catalog
	srv   *fasthttp.Server
}

func NewServer(mgr *battle.Manager, decks *collection.Service, cat *catalog.Catalog) *Server {
	s := &Server{mgr: mgr, decks: decks, cat: cat}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		Name:         "poke-battle",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	if method == fasthttp.MethodGet && path == "/cards" {
		s.handleListCards(ctx)
		return
	}

	userID := strings.TrimSpace(string(ctx.Request.Header.Peek("X-User-Id")))
	if userID == "" {
		writeErrorStatus(ctx, fasthttp.StatusUnauthorized, battledto.CodeForbidden, "X-User-Id header required", false)
		return
	}

	switch {
	case method == fasthttp.MethodPost && path == "/battles/request":
		s.handleRequestBattle(ctx, userID)
	case method == fasthttp.MethodGet && path == "/battles":
		s.handleUserBattles(ctx, userID)
	case method == fasthttp.MethodPut && path == "/decks/me":
		s.handleSetDeck(ctx, userID)
	case strings.HasPrefix(path, "/battles/"):
		s.handleBattlePath(ctx, method, path, userID)
	default:
		writeErrorStatus(ctx, fasthttp.StatusNotFound, battledto.CodeNotFound, "no such route", false)
	}
}

// handleBattlePath routes /battles/{id} and /battles/{id}/{action}.
func (s *Server) handleBattlePath(ctx *fasthttp.RequestCtx, method, path, userID string) {
	rest := strings.TrimPrefix(path, "/battles/")
	parts := strings.SplitN(rest, "/", 2)
	battleID := strings.TrimSpace(parts[0])
	if battleID == "" {
		writeErrorStatus(ctx, fasthttp.StatusNotFound, battledto.CodeNotFound, "no such route", false)
		return
	}
	if len(parts) == 1 {
		if method != fasthttp.MethodGet {
			writeErrorStatus(ctx, fasthttp.StatusMethodNotAllowed, battledto.CodeBadRequest, "method not allowed", false)
			return
		}
		s.handleGetBattle(ctx, battleID, userID)
		return
	}
	if method != fasthttp.MethodPost {
		writeErrorStatus(ctx, fasthttp.StatusMethodNotAllowed, battledto.CodeBadRequest, "method not allowed", false)
		return
	}
	switch parts[1] {
	case "accept":
		s.handleAccept(ctx, battleID, userID)
	case "reject":
		s.handleReject(ctx, battleID, userID)
	case "forfeit":
		s.handleForfeit(ctx, battleID, userID)
	case "play":
		s.handlePlay(ctx, battleID, userID)
	case "view":
		s.handleView(ctx, battleID, userID)
	default:
		writeErrorStatus(ctx, fasthttp.StatusNotFound, battledto.CodeNotFound, "no such route", false)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		obslog.L().Error("api_marshal_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}

func writeErrorStatus(ctx *fasthttp.RequestCtx, status int, code, message string, retryable bool) {
	writeJSON(ctx, status, battledto.ErrorResponse{Code: code, Message: message, Retryable: retryable})
}

// writeError maps domain errors to status codes and stable error codes.
func writeError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, battle.ErrNotFound):
		writeErrorStatus(ctx, fasthttp.StatusNotFound, battledto.CodeNotFound, err.Error(), false)
	case errors.Is(err, battle.ErrForbidden):
		writeErrorStatus(ctx, fasthttp.StatusForbidden, battledto.CodeForbidden, err.Error(), false)
	case errors.Is(err, battle.ErrInvalidState):
		writeErrorStatus(ctx, fasthttp.StatusConflict, battledto.CodeInvalidState, "state changed, refresh and retry", false)
	case errors.Is(err, battle.ErrInvalidTarget):
		writeErrorStatus(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeInvalidTarget, err.Error(), false)
	case errors.Is(err, battle.ErrDuplicateRequest):
		writeErrorStatus(ctx, fasthttp.StatusConflict, battledto.CodeDuplicateRequest, err.Error(), false)
	case errors.Is(err, battle.ErrDuplicatePlay):
		writeErrorStatus(ctx, fasthttp.StatusConflict, battledto.CodeDuplicatePlay, err.Error(), false)
	case errors.Is(err, battle.ErrInsufficientDeck):
		writeErrorStatus(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeInsufficientDeck, err.Error(), false)
	case errors.Is(err, battle.ErrUnavailable):
		writeErrorStatus(ctx, fasthttp.StatusServiceUnavailable, battledto.CodeUnavailable, "store unavailable, retry later", true)
	case errors.Is(err, collection.ErrDeckSize), errors.Is(err, collection.ErrUnknownCard):
		writeErrorStatus(ctx, fasthttp.StatusUnprocessableEntity, battledto.CodeBadRequest, err.Error(), false)
	default:
		obslog.L().Error("api_internal_error", zap.Error(err))
		writeErrorStatus(ctx, fasthttp.StatusInternalServerError, battledto.CodeUnavailable, "internal error", true)
	}
}
