package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardbox-backend/internal/models"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

// Get returns the persisted engagement stats, or a zero record when the
// user has never studied.
func (r *StatsRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	s := &models.UserStats{UserID: userID}
	query := `SELECT streak_days, total_reviews, average_rating, cards_learned, last_study_date, updated_at
		FROM user_stats WHERE user_id = $1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.StreakDays, &s.TotalReviews, &s.AverageRating, &s.CardsLearned, &s.LastStudyDate, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.UserStats{UserID: userID}, nil
		}
		return nil, err
	}
	return s, nil
}

// ListActiveStreaks returns the users whose persisted streak is non-zero,
// the candidates for lazy decay.
func (r *StatsRepo) ListActiveStreaks(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, "SELECT user_id FROM user_stats WHERE streak_days > 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *StatsRepo) Upsert(ctx context.Context, s *models.UserStats) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_stats (user_id, streak_days, total_reviews, average_rating, cards_learned, last_study_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET streak_days = $2, total_reviews = $3, average_rating = $4,
			cards_learned = $5, last_study_date = $6, updated_at = NOW()
	`, s.UserID, s.StreakDays, s.TotalReviews, s.AverageRating, s.CardsLearned, s.LastStudyDate)
	return err
}
