package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kapu/poke-battle-go/internal/catalog"
)

var (
	ErrUnknownCard = errors.New("unknown catalog card in deck")
	ErrDeckSize    = errors.New("deck size out of bounds")
)

// Service stores each user's configured deck (an ordered list of catalog
// card ids) and resolves it to catalog cards at battle accept time. Users
// without a saved deck fall back to the configured default deck.
type Service struct {
	rdb         *redis.Client
	catalog     *catalog.Catalog
	maxDeckSize int
	defaultDeck []string
}

func NewService(rdb *redis.Client, cat *catalog.Catalog, maxDeckSize int, defaultDeck []string) (*Service, error) {
	if rdb == nil || cat == nil {
		return nil, fmt.Errorf("redis client and catalog required")
	}
	if maxDeckSize <= 0 {
		maxDeckSize = 3
	}
	s := &Service{rdb: rdb, catalog: cat, maxDeckSize: maxDeckSize, defaultDeck: defaultDeck}
	if len(defaultDeck) > 0 {
		if err := s.validate(defaultDeck); err != nil {
			return nil, fmt.Errorf("default deck: %w", err)
		}
	}
	return s, nil
}

func deckKey(userID string) string { return "deck:user:" + strings.TrimSpace(userID) }

// SetDeck replaces the user's configured deck.
func (s *Service) SetDeck(ctx context.Context, userID string, cardIDs []string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id required")
	}
	if err := s.validate(cardIDs); err != nil {
		return err
	}
	raw, err := json.Marshal(cardIDs)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, deckKey(userID), raw, 0).Err()
}

// DeckFor resolves the user's configured deck to catalog cards, falling back
// to the default deck when none is saved. An empty result means the user has
// nothing to battle with; the caller decides what that implies.
func (s *Service) DeckFor(ctx context.Context, userID string) ([]catalog.Card, error) {
	raw, err := s.rdb.Get(ctx, deckKey(userID)).Bytes()
	if err == redis.Nil {
		return s.resolve(s.defaultDeck)
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode deck for %s: %w", userID, err)
	}
	return s.resolve(ids)
}

func (s *Service) resolve(ids []string) ([]catalog.Card, error) {
	out := make([]catalog.Card, 0, len(ids))
	for _, id := range ids {
		card, ok := s.catalog.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCard, id)
		}
		out = append(out, card)
	}
	return out, nil
}

func (s *Service) validate(ids []string) error {
	if len(ids) == 0 || len(ids) > s.maxDeckSize {
		return fmt.Errorf("%w: got %d, max %d", ErrDeckSize, len(ids), s.maxDeckSize)
	}
	for _, id := range ids {
		if _, ok := s.catalog.Get(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCard, id)
		}
	}
	return nil
}
