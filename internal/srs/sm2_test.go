package srs

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestSchedule_FreshCardSuccessLadder(t *testing.T) {
	// Repeated "good enough" ratings on a brand new card must walk the
	// interval ladder 1, 6, round(6*ef), ...
	state := ReviewState{}
	wantIntervals := []int{1, 6, 15, 38}

	now := testNow
	for i, want := range wantIntervals {
		next, err := Schedule(state, RatingGood, now)
		if err != nil {
			t.Fatalf("Schedule returned error on step %d: %v", i, err)
		}
		if next.Repetitions != i+1 {
			t.Errorf("step %d: expected repetitions %d, got %d", i, i+1, next.Repetitions)
		}
		if next.IntervalDays != want {
			t.Errorf("step %d: expected interval %d, got %d", i, want, next.IntervalDays)
		}
		if next.NextReview == nil || next.LastReviewed == nil {
			t.Fatalf("step %d: expected review timestamps to be set", i)
		}
		wantDue := now.Add(time.Duration(want) * 24 * time.Hour)
		if !next.NextReview.Equal(wantDue) {
			t.Errorf("step %d: expected next review %v, got %v", i, wantDue, *next.NextReview)
		}
		state = next
		now = *next.NextReview
	}
}

func TestSchedule_FailureResets(t *testing.T) {
	tests := []struct {
		name   string
		prior  ReviewState
		rating Rating
	}{
		{"mature card rated 0", ReviewState{EaseFactor: 2.5, IntervalDays: 42, Repetitions: 7}, RatingBlackout},
		{"mature card rated 2", ReviewState{EaseFactor: 2.1, IntervalDays: 15, Repetitions: 3}, RatingAlmost},
		{"fresh card rated 1", ReviewState{}, RatingWrong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Schedule(tc.prior, tc.rating, testNow)
			if err != nil {
				t.Fatalf("Schedule returned error: %v", err)
			}
			if next.Repetitions != 0 {
				t.Errorf("expected repetitions 0, got %d", next.Repetitions)
			}
			if next.IntervalDays != 1 {
				t.Errorf("expected interval 1, got %d", next.IntervalDays)
			}

			wantEase := tc.prior.EaseFactor
			if wantEase == 0 {
				wantEase = DefaultEaseFactor
			}
			if next.EaseFactor != wantEase {
				t.Errorf("failure must not change ease factor: expected %v, got %v", wantEase, next.EaseFactor)
			}
		})
	}
}

func TestSchedule_EaseFactorFloor(t *testing.T) {
	// Even an endless run of partial successes at rating 3 must never push
	// the ease factor below 1.3.
	state := ReviewState{EaseFactor: 1.4, IntervalDays: 6, Repetitions: 2}

	for i := 0; i < 50; i++ {
		next, err := Schedule(state, RatingHard, testNow)
		if err != nil {
			t.Fatalf("Schedule returned error on iteration %d: %v", i, err)
		}
		if next.EaseFactor < MinEaseFactor {
			t.Fatalf("iteration %d: ease factor %v dropped below floor %v", i, next.EaseFactor, MinEaseFactor)
		}
		state = next
	}

	if state.EaseFactor != MinEaseFactor {
		t.Errorf("expected ease factor to settle at %v, got %v", MinEaseFactor, state.EaseFactor)
	}
}

func TestSchedule_EaseFactorPerRating(t *testing.T) {
	tests := []struct {
		rating   Rating
		wantEase float64
	}{
		{RatingHard, 2.36}, // 2.5 + (0.1 - 2*(0.08+2*0.02)) = 2.5 - 0.14
		{RatingGood, 2.5},  // 2.5 + (0.1 - 1*(0.08+1*0.02)) = unchanged
		{RatingEasy, 2.6},  // 2.5 + 0.1
	}

	for _, tc := range tests {
		prior := ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2}
		next, err := Schedule(prior, tc.rating, testNow)
		if err != nil {
			t.Fatalf("Schedule returned error for rating %d: %v", tc.rating, err)
		}
		if diff := next.EaseFactor - tc.wantEase; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("rating %d: expected ease %v, got %v", tc.rating, tc.wantEase, next.EaseFactor)
		}
	}
}

func TestSchedule_MatureCardExamples(t *testing.T) {
	prior := ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2}

	// Success at rating 4: third repetition, interval round(6*2.5)=15.
	next, err := Schedule(prior, RatingGood, testNow)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if next.Repetitions != 3 || next.IntervalDays != 15 {
		t.Errorf("expected reps=3 interval=15, got reps=%d interval=%d", next.Repetitions, next.IntervalDays)
	}
	if next.EaseFactor != 2.5 {
		t.Errorf("rating 4 should leave ease at 2.5, got %v", next.EaseFactor)
	}
	wantDue := testNow.Add(15 * 24 * time.Hour)
	if !next.NextReview.Equal(wantDue) {
		t.Errorf("expected next review %v, got %v", wantDue, *next.NextReview)
	}

	// Failure at rating 2 on the same card.
	failed, err := Schedule(prior, RatingAlmost, testNow)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if failed.Repetitions != 0 || failed.IntervalDays != 1 || failed.EaseFactor != 2.5 {
		t.Errorf("expected reps=0 interval=1 ease=2.5, got reps=%d interval=%d ease=%v",
			failed.Repetitions, failed.IntervalDays, failed.EaseFactor)
	}
	if !failed.NextReview.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("failed card must come back tomorrow, got %v", *failed.NextReview)
	}
}

func TestSchedule_InvalidRating(t *testing.T) {
	for _, rating := range []Rating{-1, 6, 42} {
		if _, err := Schedule(ReviewState{}, rating, testNow); err != ErrInvalidRating {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
}

func TestSchedule_DoesNotMutateInput(t *testing.T) {
	prior := ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2}
	orig := prior

	if _, err := Schedule(prior, RatingEasy, testNow); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if prior != orig {
		t.Errorf("Schedule mutated its input: %+v != %+v", prior, orig)
	}
}

func TestSchedule_MalformedStateDefaults(t *testing.T) {
	// A stored card missing its numeric fields is treated as new.
	next, err := Schedule(ReviewState{EaseFactor: 0, IntervalDays: -3, Repetitions: -1}, RatingEasy, testNow)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if next.Repetitions != 1 || next.IntervalDays != 1 {
		t.Errorf("expected reps=1 interval=1, got reps=%d interval=%d", next.Repetitions, next.IntervalDays)
	}
	if next.EaseFactor != 2.6 {
		t.Errorf("expected defaulted ease 2.5 + 0.1 = 2.6, got %v", next.EaseFactor)
	}
}
