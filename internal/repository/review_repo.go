package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardbox-backend/internal/models"
)

// ReviewRepo persists the append-only review history. Events are never
// updated or deleted individually; they disappear only when their deck is
// deleted (cascade).
type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Append(ctx context.Context, ev *models.ReviewEvent) error {
	ev.ID = uuid.New()

	query := `INSERT INTO review_events (id, user_id, card_id, deck_id, rating, time_spent_ms)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		ev.ID, ev.UserID, ev.CardID, ev.DeckID, ev.Rating, ev.TimeSpentMs,
	).Scan(&ev.CreatedAt)
}

// Restore inserts an event keeping its original timestamp. Used when
// loading an export document, where history must survive verbatim.
func (r *ReviewRepo) Restore(ctx context.Context, ev *models.ReviewEvent) error {
	ev.ID = uuid.New()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO review_events (id, user_id, card_id, deck_id, rating, time_spent_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.UserID, ev.CardID, ev.DeckID, ev.Rating, ev.TimeSpentMs, ev.CreatedAt,
	)
	return err
}

func (r *ReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ReviewEvent, error) {
	query := `SELECT id, user_id, card_id, deck_id, rating, time_spent_ms, created_at
		FROM review_events WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ReviewEvent
	for rows.Next() {
		ev := models.ReviewEvent{}
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.CardID, &ev.DeckID, &ev.Rating, &ev.TimeSpentMs, &ev.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// WeekdayCounts returns review counts per day of week (0=Sunday) over the
// trailing seven days, for the dashboard activity chart.
func (r *ReviewRepo) WeekdayCounts(ctx context.Context, userID uuid.UUID) ([7]int, error) {
	var counts [7]int

	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(DOW FROM created_at)::int AS dow, COUNT(*)
		FROM review_events
		WHERE user_id = $1 AND created_at >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY dow`, userID)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var dow, count int
		if err := rows.Scan(&dow, &count); err != nil {
			return counts, err
		}
		if dow >= 0 && dow < 7 {
			counts[dow] = count
		}
	}
	return counts, rows.Err()
}
