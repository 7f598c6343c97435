package srs

import (
	"testing"
	"time"

	"cardbox-backend/internal/models"
)

func TestReviewBreakdown_Partition(t *testing.T) {
	now := testNow
	overdue := now.Add(-2 * time.Hour)
	inSixHours := now.Add(6 * time.Hour)
	inThreeDays := now.Add(3 * 24 * time.Hour)
	inTenDays := now.Add(10 * 24 * time.Hour)

	cards := []models.Card{
		{NextReview: nil},                             // new
		{NextReview: &overdue, Repetitions: 4},        // dueToday + learned
		{NextReview: &inSixHours, Repetitions: 1},     // dueTomorrow + learned
		{NextReview: &inThreeDays, Repetitions: 2},    // dueThisWeek + learned
		{NextReview: &inTenDays, Repetitions: 5},      // no bucket, learned
	}

	b := ReviewBreakdown(cards, now)

	if b.New != 1 || b.DueToday != 1 || b.DueTomorrow != 1 || b.DueThisWeek != 1 {
		t.Errorf("unexpected buckets: %+v", b)
	}
	if b.Learned != 4 {
		t.Errorf("expected 4 learned cards, got %d", b.Learned)
	}

	// Buckets are exclusive: their sum can never exceed the card count, and
	// the remainder is exactly the cards due more than a week out.
	bucketed := b.New + b.DueToday + b.DueTomorrow + b.DueThisWeek
	if bucketed != len(cards)-1 {
		t.Errorf("expected %d bucketed cards, got %d", len(cards)-1, bucketed)
	}
}

func TestReviewBreakdown_Empty(t *testing.T) {
	if b := ReviewBreakdown(nil, testNow); b != (Breakdown{}) {
		t.Errorf("expected zero breakdown for no cards, got %+v", b)
	}
}

func TestCardStatus(t *testing.T) {
	reviewed := testNow

	tests := []struct {
		name string
		card models.Card
		want Status
	}{
		{"never reviewed", models.Card{Repetitions: 9, IntervalDays: 90}, StatusNew},
		{"one success", models.Card{LastReviewed: &reviewed, Repetitions: 1, IntervalDays: 1}, StatusLearning},
		{"short interval", models.Card{LastReviewed: &reviewed, Repetitions: 3, IntervalDays: 15}, StatusReview},
		{"boundary below mastery", models.Card{LastReviewed: &reviewed, Repetitions: 2, IntervalDays: 29}, StatusReview},
		{"mastered", models.Card{LastReviewed: &reviewed, Repetitions: 2, IntervalDays: 30}, StatusMastered},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CardStatus(tc.card); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
