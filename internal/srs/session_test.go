package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestTracker(n int) (*Tracker, []uuid.UUID) {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return NewTracker(uuid.New(), uuid.New(), ids, testNow), ids
}

func TestTracker_FullPassSummary(t *testing.T) {
	tr, ids := newTestTracker(3)

	ratings := []Rating{RatingEasy, RatingAlmost, RatingHard}
	now := testNow
	for i, id := range ids {
		now = now.Add(10 * time.Second)
		tr.Begin(id, now)
		if err := tr.Rate(id, ratings[i]); err != nil {
			t.Fatalf("Rate returned error: %v", err)
		}
	}

	if !tr.Complete() {
		t.Fatal("expected session to be complete after rating every card")
	}

	end := now.Add(5 * time.Second)
	sum, err := tr.Finalize(end)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	if sum.CardsStudied != 3 {
		t.Errorf("expected 3 cards studied, got %d", sum.CardsStudied)
	}
	if sum.CardsCorrect != 2 { // ratings 5 and 3 count, 2 does not
		t.Errorf("expected 2 correct, got %d", sum.CardsCorrect)
	}
	// Time spent runs from the earliest shown card to finalization.
	wantSpent := end.Sub(testNow.Add(10 * time.Second))
	if sum.TimeSpent != wantSpent {
		t.Errorf("expected time spent %v, got %v", wantSpent, sum.TimeSpent)
	}
}

func TestTracker_PartialPass(t *testing.T) {
	tr, ids := newTestTracker(4)

	tr.Begin(ids[0], testNow)
	if err := tr.Rate(ids[0], RatingGood); err != nil {
		t.Fatalf("Rate returned error: %v", err)
	}

	if tr.Complete() {
		t.Error("session must not be complete with unrated cards")
	}
	if tr.Rated() != 1 {
		t.Errorf("expected 1 rated entry, got %d", tr.Rated())
	}

	sum, err := tr.Finalize(testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("explicit early end must finalize: %v", err)
	}
	if sum.CardsStudied != 1 || sum.CardsCorrect != 1 {
		t.Errorf("expected 1 studied / 1 correct, got %d / %d", sum.CardsStudied, sum.CardsCorrect)
	}
}

func TestTracker_AbandonedWithoutRatings(t *testing.T) {
	tr, _ := newTestTracker(2)

	if _, err := tr.Finalize(testNow.Add(time.Minute)); err != ErrSessionEmpty {
		t.Errorf("expected ErrSessionEmpty, got %v", err)
	}

	// An empty finalize attempt does not consume the session.
	if err := tr.Rate(tr.order[0], RatingGood); err != nil {
		t.Errorf("session should still accept ratings, got %v", err)
	}
}

func TestTracker_NeverFinalizedTwice(t *testing.T) {
	tr, ids := newTestTracker(1)
	if err := tr.Rate(ids[0], RatingEasy); err != nil {
		t.Fatalf("Rate returned error: %v", err)
	}

	if _, err := tr.Finalize(testNow.Add(time.Minute)); err != nil {
		t.Fatalf("first Finalize returned error: %v", err)
	}
	if _, err := tr.Finalize(testNow.Add(2 * time.Minute)); err != ErrSessionFinalized {
		t.Errorf("expected ErrSessionFinalized, got %v", err)
	}
	if err := tr.Rate(ids[0], RatingGood); err != ErrSessionFinalized {
		t.Errorf("rating after finalization: expected ErrSessionFinalized, got %v", err)
	}
}

func TestTracker_RejectsUnknownCardAndBadRating(t *testing.T) {
	tr, ids := newTestTracker(1)

	if err := tr.Rate(uuid.New(), RatingGood); err != ErrUnknownCard {
		t.Errorf("expected ErrUnknownCard, got %v", err)
	}
	if err := tr.Rate(ids[0], Rating(9)); err != ErrInvalidRating {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}

func TestTracker_RerateKeepsLastRating(t *testing.T) {
	tr, ids := newTestTracker(1)

	if err := tr.Rate(ids[0], RatingBlackout); err != nil {
		t.Fatalf("Rate returned error: %v", err)
	}
	if err := tr.Rate(ids[0], RatingEasy); err != nil {
		t.Fatalf("re-rate returned error: %v", err)
	}

	sum, err := tr.Finalize(testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if sum.CardsStudied != 1 || sum.CardsCorrect != 1 {
		t.Errorf("last rating must win: got %d studied / %d correct", sum.CardsStudied, sum.CardsCorrect)
	}
}
