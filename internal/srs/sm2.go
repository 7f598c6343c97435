package srs

import (
	"errors"
	"math"
	"time"
)

// SM-2 constants
const (
	MinEaseFactor     = 1.3
	DefaultEaseFactor = 2.5
)

// Rating is the user's self-assessed recall confidence, 0-5.
// 0-2 means recall failed, 3-5 means recall succeeded with increasing ease.
type Rating int

const (
	RatingBlackout Rating = 0
	RatingWrong    Rating = 1
	RatingAlmost   Rating = 2
	RatingHard     Rating = 3
	RatingGood     Rating = 4
	RatingEasy     Rating = 5
)

var ErrInvalidRating = errors.New("srs: rating must be between 0 and 5")

func (r Rating) Valid() bool {
	return r >= 0 && r <= 5
}

// Success reports whether the rating counts as a successful recall.
func (r Rating) Success() bool {
	return r >= 3
}

// ReviewState is the scheduling state carried by a card. A zero value (or a
// partially zero value loaded from an old record) is treated as a new card.
type ReviewState struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
	LastReviewed *time.Time
	NextReview   *time.Time
}

// normalized substitutes defaults for absent numeric fields so that stored
// records missing them never fail scheduling.
func (s ReviewState) normalized() ReviewState {
	if s.EaseFactor == 0 {
		s.EaseFactor = DefaultEaseFactor
	}
	if s.IntervalDays < 0 {
		s.IntervalDays = 0
	}
	if s.Repetitions < 0 {
		s.Repetitions = 0
	}
	return s
}

// Schedule applies one SM-2 review to prior and returns the new state. It
// never mutates its input. A failed recall (rating < 3) resets repetitions
// and schedules the card for tomorrow without touching the ease factor.
func Schedule(prior ReviewState, rating Rating, now time.Time) (ReviewState, error) {
	if !rating.Valid() {
		return ReviewState{}, ErrInvalidRating
	}

	next := prior.normalized()

	if !rating.Success() {
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(next.IntervalDays) * next.EaseFactor))
		}

		// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), clamped at 1.3
		q := float64(rating)
		next.EaseFactor = next.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
		if next.EaseFactor < MinEaseFactor {
			next.EaseFactor = MinEaseFactor
		}
	}

	reviewed := now
	due := now.Add(time.Duration(next.IntervalDays) * 24 * time.Hour)
	next.LastReviewed = &reviewed
	next.NextReview = &due

	return next, nil
}
