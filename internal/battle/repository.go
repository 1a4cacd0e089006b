package battle

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository archives finished battles to Postgres. The Redis aggregate
// remains the source of truth; this is the durable record for history and
// stats queries outside the hot path.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a terminal battle into the database.
func (r *Repository) SaveResult(ctx context.Context, b *Battle) error {
	if r == nil || r.db == nil || b == nil {
		return nil
	}

	roundsRaw, err := json.Marshal(b.Rounds)
	if err != nil {
		return fmt.Errorf("marshal rounds: %w", err)
	}
	cardsOneRaw, err := json.Marshal(b.PlayerOneCards)
	if err != nil {
		return fmt.Errorf("marshal player one cards: %w", err)
	}
	cardsTwoRaw, err := json.Marshal(b.PlayerTwoCards)
	if err != nil {
		return fmt.Errorf("marshal player two cards: %w", err)
	}
	duration := b.UpdatedAt.Sub(b.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO battles (
	    battle_id, player_one_id, player_two_id,
	    state, winner_id, round_count,
	    player_one_cards, player_two_cards, rounds,
	    started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7::jsonb,$8::jsonb,$9::jsonb,$10,$11,$12
	  ) ON CONFLICT (battle_id) DO UPDATE SET
	    state=EXCLUDED.state,
	    winner_id=EXCLUDED.winner_id,
	    round_count=EXCLUDED.round_count,
	    player_one_cards=EXCLUDED.player_one_cards,
	    player_two_cards=EXCLUDED.player_two_cards,
	    rounds=EXCLUDED.rounds,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		b.ID,
		b.PlayerOneID, b.PlayerTwoID,
		string(b.State), b.WinnerID, len(b.Rounds),
		string(cardsOneRaw), string(cardsTwoRaw), string(roundsRaw),
		b.CreatedAt, b.UpdatedAt, duration,
	)
	return err
}
