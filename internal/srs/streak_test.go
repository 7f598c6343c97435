package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"cardbox-backend/internal/models"
)

func eventAt(at time.Time, rating int) models.ReviewEvent {
	return models.ReviewEvent{Rating: rating, CreatedAt: at}
}

func TestRecomputeStats_EmptyHistoryIsNoOp(t *testing.T) {
	last := testNow.AddDate(0, 0, -2)
	prior := models.UserStats{StreakDays: 4, TotalReviews: 10, LastStudyDate: &last}

	got := RecomputeStats(nil, prior, testNow)
	if got.StreakDays != 4 || got.TotalReviews != 10 {
		t.Errorf("empty history must leave stats unchanged, got %+v", got)
	}
}

func TestRecomputeStats_Aggregates(t *testing.T) {
	history := []models.ReviewEvent{
		eventAt(testNow.Add(-2*time.Hour), 5),
		eventAt(testNow.Add(-time.Hour), 3),
		eventAt(testNow.Add(-30*time.Minute), 4),
	}

	got := RecomputeStats(history, models.UserStats{}, testNow)

	if got.TotalReviews != 3 {
		t.Errorf("expected 3 total reviews, got %d", got.TotalReviews)
	}
	if got.AverageRating != 4.0 {
		t.Errorf("expected average rating 4.0, got %v", got.AverageRating)
	}
	if got.LastStudyDate == nil || !got.LastStudyDate.Equal(history[2].CreatedAt) {
		t.Errorf("expected last study date %v, got %v", history[2].CreatedAt, got.LastStudyDate)
	}
}

func TestRecomputeStats_Streak(t *testing.T) {
	now := time.Date(2025, 6, 15, 20, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)

	tests := []struct {
		name       string
		prevStudy  *time.Time
		prevStreak int
		eventAt    time.Time
		want       int
	}{
		{"first ever study day", nil, 0, now, 1},
		{"continued from yesterday", &yesterday, 5, now, 6},
		{"restarted after gap", &threeDaysAgo, 5, now, 1},
		{"same day again", &now, 5, now, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prior := models.UserStats{StreakDays: tc.prevStreak, LastStudyDate: tc.prevStudy}
			history := []models.ReviewEvent{eventAt(tc.eventAt, 4)}

			got := RecomputeStats(history, prior, now)
			if got.StreakDays != tc.want {
				t.Errorf("expected streak %d, got %d", tc.want, got.StreakDays)
			}
		})
	}
}

func TestRecomputeStats_StreakDecaysWithoutNewEvents(t *testing.T) {
	// The latest event is three days old; recomputing with today's clock
	// must zero the streak even though nothing new was studied.
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	stale := now.AddDate(0, 0, -3)

	prior := models.UserStats{StreakDays: 12, LastStudyDate: &stale}
	history := []models.ReviewEvent{eventAt(stale, 5)}

	got := RecomputeStats(history, prior, now)
	if got.StreakDays != 0 {
		t.Errorf("expected streak broken to 0, got %d", got.StreakDays)
	}
}

func TestRecomputeStats_LastEventYesterdayKeepsStreak(t *testing.T) {
	// Studied yesterday but not yet today: the streak is not broken, just
	// not extended.
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)

	prior := models.UserStats{StreakDays: 7, LastStudyDate: &yesterday}
	history := []models.ReviewEvent{eventAt(yesterday, 4)}

	got := RecomputeStats(history, prior, now)
	if got.StreakDays != 7 {
		t.Errorf("expected streak preserved at 7, got %d", got.StreakDays)
	}
}

func TestRecomputeStats_CountsEventsForDeletedCards(t *testing.T) {
	// History is append-only: deleting a card leaves its review events in
	// place, and a recompute still counts them. Only rating and timestamp
	// are read, so an event pointing at a card that no longer exists must
	// not shrink the totals.
	history := []models.ReviewEvent{
		{CardID: uuid.New(), Rating: 5, CreatedAt: testNow.Add(-2 * time.Hour)},
		{CardID: uuid.New(), Rating: 3, CreatedAt: testNow.Add(-time.Hour)},
	}

	got := RecomputeStats(history, models.UserStats{TotalReviews: 2, AverageRating: 4.0}, testNow)

	if got.TotalReviews != 2 {
		t.Errorf("expected 2 total reviews, got %d", got.TotalReviews)
	}
	if got.AverageRating != 4.0 {
		t.Errorf("expected average rating 4.0, got %v", got.AverageRating)
	}
}

func TestCountLearned(t *testing.T) {
	cards := []models.Card{
		{Repetitions: 0},
		{Repetitions: 1},
		{Repetitions: 8},
	}
	if got := CountLearned(cards); got != 2 {
		t.Errorf("expected 2 learned cards, got %d", got)
	}
}
