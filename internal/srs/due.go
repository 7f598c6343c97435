package srs

import (
	"time"

	"github.com/google/uuid"

	"cardbox-backend/internal/models"
)

// DueCards returns the cards eligible for review at now, preserving input
// order. A card with no NextReview has never been scheduled and is always
// due. When deckID is non-nil the result is restricted to that deck.
func DueCards(cards []models.Card, now time.Time, deckID *uuid.UUID) []models.Card {
	var due []models.Card
	for _, c := range cards {
		if deckID != nil && c.DeckID != *deckID {
			continue
		}
		if c.NextReview == nil || !c.NextReview.After(now) {
			due = append(due, c)
		}
	}
	return due
}
