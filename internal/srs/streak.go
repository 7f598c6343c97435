package srs

import (
	"time"

	"cardbox-backend/internal/models"
)

// RecomputeStats derives engagement stats from the full review history.
// An empty history leaves prior unchanged. The streak compares the calendar
// day of the latest event against both the prior study day and the current
// wall-clock day, so a streak broken by inactivity decays on the next
// recompute even when no new event has arrived.
func RecomputeStats(history []models.ReviewEvent, prior models.UserStats, now time.Time) models.UserStats {
	if len(history) == 0 {
		return prior
	}

	stats := prior
	stats.TotalReviews = len(history)

	var ratingSum int
	last := history[0].CreatedAt
	for _, ev := range history {
		ratingSum += ev.Rating
		if ev.CreatedAt.After(last) {
			last = ev.CreatedAt
		}
	}
	stats.AverageRating = float64(ratingSum) / float64(len(history))
	stats.LastStudyDate = &last

	today := dayStart(now)
	yesterday := today.AddDate(0, 0, -1)
	lastDay := dayStart(last)

	switch {
	case lastDay.Equal(today):
		if prior.LastStudyDate == nil {
			stats.StreakDays = 1
		} else {
			prevDay := dayStart(*prior.LastStudyDate)
			switch {
			case prevDay.Equal(yesterday):
				stats.StreakDays = prior.StreakDays + 1
			case prevDay.Before(yesterday):
				stats.StreakDays = 1
			}
			// prevDay == today: streak already counted, leave it
		}
	case lastDay.Before(yesterday):
		stats.StreakDays = 0
	}

	stats.UpdatedAt = now
	return stats
}

// CountLearned returns how many cards have at least one successful review.
func CountLearned(cards []models.Card) int {
	n := 0
	for _, c := range cards {
		if c.Repetitions > 0 {
			n++
		}
	}
	return n
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
