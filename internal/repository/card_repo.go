package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardbox-backend/internal/models"
	"cardbox-backend/internal/srs"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) Create(ctx context.Context, c *models.Card) error {
	c.ID = uuid.New()
	if c.EaseFactor == 0 {
		c.EaseFactor = srs.DefaultEaseFactor
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	query := `INSERT INTO cards (id, deck_id, front, back, tags, ease_factor, interval_days, repetitions, last_reviewed, next_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		c.ID, c.DeckID, c.Front, c.Back, c.Tags,
		c.EaseFactor, c.IntervalDays, c.Repetitions, c.LastReviewed, c.NextReview,
	).Scan(&c.CreatedAt)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, "UPDATE decks SET card_count = card_count + 1 WHERE id = $1", c.DeckID)
	return err
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	c := &models.Card{}
	query := `SELECT id, deck_id, front, back, tags, ease_factor, interval_days, repetitions,
		last_reviewed, next_review, created_at
		FROM cards WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Tags, &c.EaseFactor,
		&c.IntervalDays, &c.Repetitions, &c.LastReviewed, &c.NextReview, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CardRepo) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]models.Card, error) {
	query := `SELECT id, deck_id, front, back, tags, ease_factor, interval_days, repetitions,
		last_reviewed, next_review, created_at
		FROM cards WHERE deck_id = $1 ORDER BY next_review ASC NULLS FIRST`

	return r.scanCards(ctx, query, deckID)
}

func (r *CardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Card, error) {
	query := `SELECT c.id, c.deck_id, c.front, c.back, c.tags, c.ease_factor, c.interval_days, c.repetitions,
		c.last_reviewed, c.next_review, c.created_at
		FROM cards c JOIN decks d ON c.deck_id = d.id
		WHERE d.user_id = $1 ORDER BY c.next_review ASC NULLS FIRST`

	return r.scanCards(ctx, query, userID)
}

func (r *CardRepo) scanCards(ctx context.Context, query string, arg any) ([]models.Card, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c := models.Card{}
		err := rows.Scan(
			&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Tags, &c.EaseFactor,
			&c.IntervalDays, &c.Repetitions, &c.LastReviewed, &c.NextReview, &c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *CardRepo) UpdateContent(ctx context.Context, c *models.Card) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE cards SET front = $1, back = $2, tags = $3 WHERE id = $4",
		c.Front, c.Back, c.Tags, c.ID,
	)
	return err
}

// UpdateSchedule persists a new scheduling state computed by the srs
// engine. The caller owns the read-compute-write sequence.
func (r *CardRepo) UpdateSchedule(ctx context.Context, id uuid.UUID, state srs.ReviewState) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE cards SET ease_factor = $1, interval_days = $2, repetitions = $3,
		 last_reviewed = $4, next_review = $5 WHERE id = $6`,
		state.EaseFactor, state.IntervalDays, state.Repetitions,
		state.LastReviewed, state.NextReview, id,
	)
	return err
}

func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	var deckID uuid.UUID
	err := r.pool.QueryRow(ctx, "DELETE FROM cards WHERE id = $1 RETURNING deck_id", id).Scan(&deckID)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, "UPDATE decks SET card_count = GREATEST(0, card_count - 1) WHERE id = $1", deckID)
	return err
}
