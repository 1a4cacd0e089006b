package battle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/poke-battle-go/internal/catalog"
	"github.com/kapu/poke-battle-go/internal/obslog"
)

// DeckSource resolves the cards a user has configured for battle. It is
// consulted once, at accept time, to materialize both sides' battle cards.
type DeckSource interface {
	DeckFor(ctx context.Context, userID string) ([]catalog.Card, error)
}

// Manager owns every battle lifecycle mutation. Each battle is a JSON
// aggregate under its own key and every mutation runs inside a WATCH
// transaction on that key, so writers serialize per battle id.
type Manager struct {
	rdb          *redis.Client
	decks        DeckSource
	repo         *Repository
	storeTimeout time.Duration
}

type Option func(*Manager)

// WithStoreTimeout bounds every store round-trip; operations that exceed it
// fail with ErrUnavailable.
func WithStoreTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.storeTimeout = d
		}
	}
}

func NewManager(redisURL string, decks DeckSource, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for battle manager")
	}
	if decks == nil {
		return nil, fmt.Errorf("deck source required for battle manager")
	}
	ropts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	m := &Manager{rdb: rdb, decks: decks, storeTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachRepository wires a database repository for persisting finished battles.
func (m *Manager) AttachRepository(r *Repository) {
	if m != nil {
		m.repo = r
	}
}

// RequestBattle opens a new battle in REQUESTED state with the requester as
// player one. At most one open (REQUESTED or ACTIVE) battle may exist per
// unordered user pair; the pair index key is watched so two concurrent
// requests for the same pair cannot both commit.
func (m *Manager) RequestBattle(ctx context.Context, requesterID, targetID string) (*Battle, error) {
	requesterID = strings.TrimSpace(requesterID)
	targetID = strings.TrimSpace(targetID)
	if requesterID == "" || targetID == "" || requesterID == targetID {
		return nil, ErrInvalidTarget
	}
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	now := time.Now()
	b := &Battle{
		ID:          newBattleID(),
		State:       StateRequested,
		PlayerOneID: requesterID,
		PlayerTwoID: targetID,
		Rounds:      []Round{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	pk := pairKey(requesterID, targetID)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		existingID, err := tx.Get(ctx, pk).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if existingID != "" {
			prev, gerr := getTx(ctx, tx, existingID)
			if gerr != nil {
				return gerr
			}
			// A stale pair entry pointing at a finished or vanished battle
			// does not block a fresh request.
			if prev != nil && !prev.State.Terminal() {
				return ErrDuplicateRequest
			}
		}
		raw, err := json.Marshal(b)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, battleKey(b.ID), raw, 0)
		pipe.Set(ctx, pk, b.ID, 0)
		pipe.SAdd(ctx, userIdxKey(requesterID), b.ID)
		pipe.SAdd(ctx, userIdxKey(targetID), b.ID)
		_, err = pipe.Exec(ctx)
		return err
	}, pk)
	if errors.Is(err, redis.TxFailedErr) {
		// Lost the race against another request for the same pair.
		return nil, ErrDuplicateRequest
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	obslog.L().Info("battle_request",
		zap.String("battle_id", b.ID),
		zap.String("player_one", b.PlayerOneID),
		zap.String("player_two", b.PlayerTwoID),
	)
	return b, nil
}

// AcceptBattle moves a REQUESTED battle to ACTIVE, materializes both
// players' battle cards from their configured decks, and opens round one.
// Only the challenged player may accept.
func (m *Manager) AcceptBattle(ctx context.Context, battleID, actingUserID string) (*Battle, error) {
	b, err := m.mutate(ctx, battleID, func(cur *Battle) error {
		if actingUserID != cur.PlayerTwoID {
			return ErrForbidden
		}
		if cur.State != StateRequested {
			return ErrInvalidState
		}
		deckOne, derr := m.decks.DeckFor(ctx, cur.PlayerOneID)
		if derr != nil {
			return derr
		}
		deckTwo, derr := m.decks.DeckFor(ctx, cur.PlayerTwoID)
		if derr != nil {
			return derr
		}
		if len(deckOne) == 0 || len(deckTwo) == 0 {
			return ErrInsufficientDeck
		}
		cur.PlayerOneCards = materialize(deckOne)
		cur.PlayerTwoCards = materialize(deckTwo)
		if err := transition(cur, StateActive); err != nil {
			return err
		}
		cur.Rounds = append(cur.Rounds, Round{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_accept",
		zap.String("battle_id", b.ID),
		zap.String("user_id", actingUserID),
		zap.Int("player_one_cards", len(b.PlayerOneCards)),
		zap.Int("player_two_cards", len(b.PlayerTwoCards)),
	)
	return b, nil
}

// RejectBattle declines a REQUESTED battle. Only the challenged player may
// reject; the battle becomes terminal and the pair is free to re-request.
func (m *Manager) RejectBattle(ctx context.Context, battleID, actingUserID string) (*Battle, error) {
	b, err := m.mutate(ctx, battleID, func(cur *Battle) error {
		if actingUserID != cur.PlayerTwoID {
			return ErrForbidden
		}
		if cur.State != StateRequested {
			return ErrInvalidState
		}
		return transition(cur, StateRejected)
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_reject",
		zap.String("battle_id", b.ID),
		zap.String("user_id", actingUserID),
	)
	return b, nil
}

// ForfeitBattle ends an ACTIVE battle; the other participant wins.
func (m *Manager) ForfeitBattle(ctx context.Context, battleID, actingUserID string) (*Battle, error) {
	b, err := m.mutate(ctx, battleID, func(cur *Battle) error {
		if !cur.HasPlayer(actingUserID) {
			return ErrForbidden
		}
		if cur.State != StateActive {
			return ErrInvalidState
		}
		if err := transition(cur, StateForfeited); err != nil {
			return err
		}
		cur.WinnerID = cur.OpponentOf(actingUserID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_forfeit",
		zap.String("battle_id", b.ID),
		zap.String("user_id", actingUserID),
		zap.String("winner", b.WinnerID),
	)
	m.persistIfFinal(ctx, b)
	return b, nil
}

// PlayCard submits the acting player's card for the current round. When both
// sides have played, the round closes: damage is applied simultaneously and
// the battle either ends (one or both sides exhausted) or a new round opens.
func (m *Manager) PlayCard(ctx context.Context, battleID, actingUserID, battleCardID string) (*Battle, error) {
	battleCardID = strings.TrimSpace(battleCardID)
	b, err := m.mutate(ctx, battleID, func(cur *Battle) error {
		if !cur.HasPlayer(actingUserID) {
			return ErrForbidden
		}
		if cur.State != StateActive {
			return ErrInvalidState
		}
		card := findCard(cur.cardsOf(actingUserID), battleCardID)
		if card == nil {
			if findCard(cur.cardsOf(cur.OpponentOf(actingUserID)), battleCardID) != nil {
				return ErrForbidden
			}
			return ErrNotFound
		}
		if card.IsDead {
			return ErrForbidden
		}
		r := cur.CurrentRound()
		if r == nil {
			return ErrInvalidState
		}
		slot := &r.PlayerOneCard
		if actingUserID == cur.PlayerTwoID {
			slot = &r.PlayerTwoCard
		}
		if *slot != nil {
			return ErrDuplicatePlay
		}
		*slot = &PlayedCard{BattleCardID: card.ID, RoundStartHP: card.CurrentHP}
		if r.PlayerOneCard != nil && r.PlayerTwoCard != nil {
			if err := closeRound(cur, r); err != nil {
				return err
			}
			return settleAfterClose(cur)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("battle_play",
		zap.String("battle_id", b.ID),
		zap.String("user_id", actingUserID),
		zap.String("battle_card_id", battleCardID),
		zap.Int("rounds", len(b.Rounds)),
		zap.String("state", string(b.State)),
	)
	m.persistIfFinal(ctx, b)
	return b, nil
}

// ViewBattle marks the acting participant's viewed flag on the most recently
// closed round. Idempotent: once the flag is set, further calls do nothing.
func (m *Manager) ViewBattle(ctx context.Context, battleID, actingUserID string) (*Battle, error) {
	return m.mutate(ctx, battleID, func(cur *Battle) error {
		if !cur.HasPlayer(actingUserID) {
			return ErrForbidden
		}
		r := cur.LastClosedRound()
		if r == nil {
			return errNoChange
		}
		flag := &r.PlayerOneViewed
		if actingUserID == cur.PlayerTwoID {
			flag = &r.PlayerTwoViewed
		}
		if *flag {
			return errNoChange
		}
		*flag = true
		return nil
	})
}

// GetBattle loads a battle for one of its participants.
func (m *Manager) GetBattle(ctx context.Context, battleID, actingUserID string) (*Battle, error) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	b, err := m.get(ctx, battleID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	if !b.HasPlayer(actingUserID) {
		return nil, ErrForbidden
	}
	return b, nil
}

// errNoChange signals a mutation callback that found nothing to write; the
// loaded aggregate is returned untouched.
var errNoChange = errors.New("no change")

const watchAttempts = 3

// mutate runs fn against the freshly-loaded aggregate inside a WATCH
// transaction on the battle key. A lost race reloads and re-runs fn, so a
// broken precondition surfaces as the usual domain error rather than a
// transaction failure.
func (m *Manager) mutate(ctx context.Context, battleID string, fn func(*Battle) error) (*Battle, error) {
	ctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	key := battleKey(battleID)

	var out *Battle
	for attempt := 0; attempt < watchAttempts; attempt++ {
		err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			var cur Battle
			if jerr := json.Unmarshal(raw, &cur); jerr != nil {
				return jerr
			}
			if ferr := fn(&cur); ferr != nil {
				if errors.Is(ferr, errNoChange) {
					out = &cur
					return nil
				}
				return ferr
			}
			cur.UpdatedAt = time.Now()
			newRaw, err := json.Marshal(&cur)
			if err != nil {
				return err
			}
			pipe := tx.TxPipeline()
			pipe.Set(ctx, key, newRaw, 0)
			if cur.State.Terminal() {
				// Free the pair guard, but only if it still points here; a
				// later battle between the same users may own it by now.
				pk := pairKey(cur.PlayerOneID, cur.PlayerTwoID)
				if owner, gerr := tx.Get(ctx, pk).Result(); gerr == nil && owner == cur.ID {
					pipe.Del(ctx, pk)
				}
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
			out = &cur
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, wrapStoreErr(err)
		}
		return out, nil
	}
	return nil, ErrUnavailable
}

// materialize builds fresh battle cards from a deck of catalog cards.
func materialize(deck []catalog.Card) []BattleCard {
	out := make([]BattleCard, 0, len(deck))
	for _, c := range deck {
		out = append(out, BattleCard{
			ID:        "bc-" + uuid.NewString(),
			CardID:    c.ID,
			Name:      c.Name,
			Rarity:    c.Rarity,
			MaxHP:     c.HP,
			Attack:    c.AttackDamage,
			CurrentHP: c.HP,
		})
	}
	return out
}

func (m *Manager) get(ctx context.Context, id string) (*Battle, error) {
	raw, err := m.rdb.Get(ctx, battleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b Battle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func getTx(ctx context.Context, tx *redis.Tx, id string) (*Battle, error) {
	raw, err := tx.Get(ctx, battleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b Battle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// persistIfFinal saves a finished battle to the repository if one is attached.
// Rejected requests never became games and are not recorded.
func (m *Manager) persistIfFinal(ctx context.Context, b *Battle) {
	if m == nil || m.repo == nil || b == nil {
		return
	}
	switch b.State {
	case StateCompleted, StateTied, StateForfeited:
	default:
		return
	}
	if err := m.repo.SaveResult(ctx, b); err != nil {
		obslog.L().Error("battle_result_persist_error",
			zap.String("battle_id", b.ID),
			zap.String("state", string(b.State)),
			zap.Error(err),
		)
		return
	}
	obslog.L().Info("battle_result_persist",
		zap.String("battle_id", b.ID),
		zap.String("state", string(b.State)),
		zap.String("winner", b.WinnerID),
	)
}

var domainErrs = []error{
	ErrNotFound, ErrForbidden, ErrInvalidState, ErrInvalidTarget,
	ErrDuplicateRequest, ErrDuplicatePlay, ErrInsufficientDeck,
}

// wrapStoreErr passes domain errors through and folds everything else
// (timeouts, connection failures, corrupt payloads) into ErrUnavailable.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	for _, de := range domainErrs {
		if errors.Is(err, de) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func newBattleID() string { return "btl-" + uuid.NewString() }

func battleKey(id string) string      { return "battle:" + strings.TrimSpace(id) }
func userIdxKey(userID string) string { return "battle:index:user:" + strings.TrimSpace(userID) }

// pairKey is normalized over the unordered user pair.
func pairKey(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if b < a {
		a, b = b, a
	}
	return "battle:index:pair:" + a + ":" + b
}

// ParseRedisURL returns address, password, and db extracted from REDIS_URL.
// Provided so other stores can share the connection settings without this
// package exposing redis.Options upstream.
func ParseRedisURL(raw string) (addr, password string, db int, err error) {
	opts, err := parseRedisURL(raw)
	if err != nil {
		return "", "", 0, err
	}
	return opts.Addr, opts.Password, opts.DB, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
