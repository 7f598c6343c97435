package models

import (
	"time"

	"github.com/google/uuid"
)

type StudySession struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	DeckID       uuid.UUID  `json:"deck_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CardsStudied int        `json:"cards_studied"`
	CardsCorrect int        `json:"cards_correct"`
}

// ReviewEvent is one immutable entry of the append-only review history.
type ReviewEvent struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CardID      uuid.UUID `json:"card_id"`
	DeckID      uuid.UUID `json:"deck_id"`
	Rating      int       `json:"rating"`
	TimeSpentMs int       `json:"time_spent_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserStats is recomputed from the full review history after every session.
type UserStats struct {
	UserID        uuid.UUID  `json:"user_id"`
	StreakDays    int        `json:"streak_days"`
	TotalReviews  int        `json:"total_reviews"`
	AverageRating float64    `json:"average_rating"`
	CardsLearned  int        `json:"cards_learned"`
	LastStudyDate *time.Time `json:"last_study_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ExportDocument is the bulk export/import payload. Round-tripping through
// it preserves every persisted field of all five record collections.
type ExportDocument struct {
	Decks    []*Deck         `json:"decks"`
	Cards    []Card          `json:"cards"`
	Sessions []*StudySession `json:"sessions"`
	History  []ReviewEvent   `json:"history"`
	Stats    *UserStats      `json:"stats,omitempty"`
}
