package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"cardbox-backend/internal/models"
)

func cardDueAt(deckID uuid.UUID, due *time.Time) models.Card {
	return models.Card{ID: uuid.New(), DeckID: deckID, NextReview: due}
}

func TestDueCards_Selection(t *testing.T) {
	now := testNow
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	deckA := uuid.New()
	deckB := uuid.New()

	never := cardDueAt(deckA, nil)
	overdue := cardDueAt(deckA, &past)
	exactlyNow := cardDueAt(deckB, &now)
	notYet := cardDueAt(deckA, &future)

	cards := []models.Card{never, overdue, exactlyNow, notYet}

	due := DueCards(cards, now, nil)
	if len(due) != 3 {
		t.Fatalf("expected 3 due cards, got %d", len(due))
	}
	// Stable filter: input order preserved.
	if due[0].ID != never.ID || due[1].ID != overdue.ID || due[2].ID != exactlyNow.ID {
		t.Errorf("due cards out of input order: %v", []uuid.UUID{due[0].ID, due[1].ID, due[2].ID})
	}

	for _, c := range due {
		if c.ID == notYet.ID {
			t.Errorf("card with future next review must not be due")
		}
	}
}

func TestDueCards_DeckScope(t *testing.T) {
	now := testNow
	deckA := uuid.New()
	deckB := uuid.New()

	cards := []models.Card{
		cardDueAt(deckA, nil),
		cardDueAt(deckB, nil),
		cardDueAt(deckA, nil),
	}

	due := DueCards(cards, now, &deckA)
	if len(due) != 2 {
		t.Fatalf("expected 2 due cards in deck A, got %d", len(due))
	}
	for _, c := range due {
		if c.DeckID != deckA {
			t.Errorf("expected only deck A cards, got card from %s", c.DeckID)
		}
	}
}

func TestDueCards_NeverReviewedAlwaysDue(t *testing.T) {
	card := cardDueAt(uuid.New(), nil)

	for _, now := range []time.Time{testNow, testNow.AddDate(10, 0, 0), time.Unix(0, 0)} {
		if got := DueCards([]models.Card{card}, now, nil); len(got) != 1 {
			t.Errorf("new card must be due at %v", now)
		}
	}
}
