package srs

import (
	"time"

	"cardbox-backend/internal/models"
)

// Status is the derived maturity of a card. It is a view over stored state,
// never persisted.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
	StatusMastered Status = "mastered"
)

// Breakdown partitions a card collection by review urgency. The four time
// buckets are mutually exclusive per card; Learned counts independently.
type Breakdown struct {
	New         int `json:"new"`
	DueToday    int `json:"due_today"`
	DueTomorrow int `json:"due_tomorrow"`
	DueThisWeek int `json:"due_this_week"`
	Learned     int `json:"learned"`
}

// ReviewBreakdown buckets each card by the first matching rule: never
// scheduled, already due, due within a day, due within a week. Cards due
// more than a week out fall in no bucket.
func ReviewBreakdown(cards []models.Card, now time.Time) Breakdown {
	tomorrow := now.Add(24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)

	var b Breakdown
	for _, c := range cards {
		switch {
		case c.NextReview == nil:
			b.New++
		case !c.NextReview.After(now):
			b.DueToday++
		case !c.NextReview.After(tomorrow):
			b.DueTomorrow++
		case !c.NextReview.After(nextWeek):
			b.DueThisWeek++
		}

		if c.Repetitions > 0 {
			b.Learned++
		}
	}
	return b
}

// CardStatus classifies a card with a strict decision list: first match
// wins. A card is mastered only once it has at least two consecutive
// successful reviews and a 30-day interval.
func CardStatus(card models.Card) Status {
	if card.LastReviewed == nil {
		return StatusNew
	}
	if card.Repetitions < 2 {
		return StatusLearning
	}
	if card.IntervalDays < 30 {
		return StatusReview
	}
	return StatusMastered
}
