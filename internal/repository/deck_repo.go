package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardbox-backend/internal/models"
)

type DeckRepo struct {
	pool *pgxpool.Pool
}

func NewDeckRepo(pool *pgxpool.Pool) *DeckRepo {
	return &DeckRepo{pool: pool}
}

func (r *DeckRepo) Create(ctx context.Context, d *models.Deck) error {
	d.ID = uuid.New()

	query := `INSERT INTO decks (id, user_id, name, description, card_count)
		VALUES ($1, $2, $3, $4, 0) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		d.ID, d.UserID, d.Name, d.Description,
	).Scan(&d.CreatedAt)
}

func (r *DeckRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	d := &models.Deck{}
	query := `SELECT id, user_id, name, description, card_count, last_studied, created_at
		FROM decks WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.Name, &d.Description, &d.CardCount, &d.LastStudied, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DeckRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error) {
	query := `SELECT id, user_id, name, description, card_count, last_studied, created_at
		FROM decks WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		d := &models.Deck{}
		err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.CardCount, &d.LastStudied, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (r *DeckRepo) Update(ctx context.Context, d *models.Deck) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE decks SET name = $1, description = $2 WHERE id = $3",
		d.Name, d.Description, d.ID,
	)
	return err
}

func (r *DeckRepo) TouchLastStudied(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, "UPDATE decks SET last_studied = $1 WHERE id = $2", at, id)
	return err
}

// Delete removes a deck; cards, sessions and review events referencing it
// are dropped by ON DELETE CASCADE.
func (r *DeckRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM decks WHERE id = $1", id)
	return err
}
