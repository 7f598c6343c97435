package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardbox-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Start(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()

	query := `
		INSERT INTO study_sessions (id, user_id, deck_id)
		VALUES ($1, $2, $3)
		RETURNING started_at
	`

	return r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.DeckID).Scan(&s.StartedAt)
}

// Restore inserts a finished session with its original timestamps, for
// the export/import path.
func (r *SessionRepo) Restore(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO study_sessions (id, user_id, deck_id, started_at, ended_at, cards_studied, cards_correct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.UserID, s.DeckID, s.StartedAt, s.EndedAt, s.CardsStudied, s.CardsCorrect)
	return err
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	s := &models.StudySession{}
	query := `SELECT id, user_id, deck_id, started_at, ended_at, cards_studied, cards_correct
		FROM study_sessions WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.DeckID, &s.StartedAt, &s.EndedAt, &s.CardsStudied, &s.CardsCorrect,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.StudySession, error) {
	query := `SELECT id, user_id, deck_id, started_at, ended_at, cards_studied, cards_correct
		FROM study_sessions WHERE user_id = $1 ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.StudySession
	for rows.Next() {
		s := &models.StudySession{}
		err := rows.Scan(&s.ID, &s.UserID, &s.DeckID, &s.StartedAt, &s.EndedAt, &s.CardsStudied, &s.CardsCorrect)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Finalize closes a session exactly once. A row whose ended_at is already
// set is left untouched.
func (r *SessionRepo) Finalize(ctx context.Context, id uuid.UUID, endedAt time.Time, cardsStudied, cardsCorrect int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET ended_at = $1, cards_studied = $2, cards_correct = $3
		WHERE id = $4 AND ended_at IS NULL
	`, endedAt, cardsStudied, cardsCorrect, id)
	return err
}

// Discard removes a session that was abandoned before any card was rated,
// so empty sessions never pollute history.
func (r *SessionRepo) Discard(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM study_sessions WHERE id = $1 AND ended_at IS NULL", id)
	return err
}
