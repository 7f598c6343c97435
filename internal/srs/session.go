package srs

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionFinalized = errors.New("srs: session already finalized")
	ErrSessionEmpty     = errors.New("srs: no cards were rated")
	ErrUnknownCard      = errors.New("srs: card is not part of this session")
)

// CardReview is one per-card entry of an active session: when the card was
// first shown and the eventual rating, nil until rated.
type CardReview struct {
	CardID    uuid.UUID
	StartedAt time.Time
	Rating    *Rating
}

// Summary holds the metrics computed when a session is finalized.
type Summary struct {
	CardsStudied int
	CardsCorrect int
	TimeSpent    time.Duration
	EndedAt      time.Time
}

// Tracker follows one study pass over a fixed set of cards. It moves from
// active to finalized exactly once: either when every card has been rated
// or when the caller ends the session early.
type Tracker struct {
	SessionID uuid.UUID
	DeckID    uuid.UUID
	StartedAt time.Time

	order     []uuid.UUID
	entries   map[uuid.UUID]*CardReview
	finalized bool
}

func NewTracker(sessionID, deckID uuid.UUID, cardIDs []uuid.UUID, now time.Time) *Tracker {
	t := &Tracker{
		SessionID: sessionID,
		DeckID:    deckID,
		StartedAt: now,
		order:     append([]uuid.UUID(nil), cardIDs...),
		entries:   make(map[uuid.UUID]*CardReview, len(cardIDs)),
	}
	for _, id := range cardIDs {
		t.entries[id] = &CardReview{CardID: id, StartedAt: now}
	}
	return t
}

// Begin marks the moment a card is shown, so time-spent reflects viewing
// time rather than session start. Re-showing an already rated card is a
// no-op.
func (t *Tracker) Begin(cardID uuid.UUID, now time.Time) {
	if e, ok := t.entries[cardID]; ok && e.Rating == nil {
		e.StartedAt = now
	}
}

// Rate records the rating for one card. The same card may be re-rated
// while the session is active; the last rating wins.
func (t *Tracker) Rate(cardID uuid.UUID, rating Rating) error {
	if t.finalized {
		return ErrSessionFinalized
	}
	if !rating.Valid() {
		return ErrInvalidRating
	}
	e, ok := t.entries[cardID]
	if !ok {
		return ErrUnknownCard
	}
	r := rating
	e.Rating = &r
	return nil
}

// Complete reports whether every card in the session has been rated.
func (t *Tracker) Complete() bool {
	for _, e := range t.entries {
		if e.Rating == nil {
			return false
		}
	}
	return len(t.entries) > 0
}

// Rated returns how many cards have been rated so far.
func (t *Tracker) Rated() int {
	n := 0
	for _, e := range t.entries {
		if e.Rating != nil {
			n++
		}
	}
	return n
}

// Finalize closes the session and computes its summary. A session where
// nothing was rated returns ErrSessionEmpty so the caller can discard it
// instead of persisting an empty record.
func (t *Tracker) Finalize(now time.Time) (Summary, error) {
	if t.finalized {
		return Summary{}, ErrSessionFinalized
	}

	var (
		studied  int
		correct  int
		earliest time.Time
	)
	for _, id := range t.order {
		e := t.entries[id]
		if e.Rating == nil {
			continue
		}
		studied++
		if e.Rating.Success() {
			correct++
		}
		if earliest.IsZero() || e.StartedAt.Before(earliest) {
			earliest = e.StartedAt
		}
	}

	if studied == 0 {
		return Summary{}, ErrSessionEmpty
	}

	t.finalized = true
	return Summary{
		CardsStudied: studied,
		CardsCorrect: correct,
		TimeSpent:    now.Sub(earliest),
		EndedAt:      now,
	}, nil
}
