package models

import (
	"time"

	"github.com/google/uuid"
)

type Deck struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CardCount   int        `json:"card_count"`
	LastStudied *time.Time `json:"last_studied"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Card struct {
	ID           uuid.UUID  `json:"id"`
	DeckID       uuid.UUID  `json:"deck_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	Tags         []string   `json:"tags"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	Repetitions  int        `json:"repetitions"`
	LastReviewed *time.Time `json:"last_reviewed"`
	NextReview   *time.Time `json:"next_review"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CreateDeckRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateCardRequest struct {
	DeckID string   `json:"deck_id"`
	Front  string   `json:"front"`
	Back   string   `json:"back"`
	Tags   []string `json:"tags"`
}

type UpdateCardRequest struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}

type CardRatingRequest struct {
	Rating      int `json:"rating"` // 0-5 confidence scale
	TimeSpentMs int `json:"time_spent_ms"`
}

type DeckStats struct {
	TotalCards  int     `json:"total_cards"`
	New         int     `json:"new"`
	Learning    int     `json:"learning"`
	Review      int     `json:"review"`
	Mastered    int     `json:"mastered"`
	DueToday    int     `json:"due_today"`
	MasteryRate float64 `json:"mastery_rate"`
}
