package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"cardbox-backend/internal/srs"
)

func trackedSession(userID uuid.UUID, startedAt time.Time) *activeSession {
	return &activeSession{
		userID:  userID,
		tracker: srs.NewTracker(uuid.New(), uuid.New(), []uuid.UUID{uuid.New()}, startedAt),
	}
}

func TestTakeStale_EvictsDayOldSessions(t *testing.T) {
	now := time.Now()
	userID := uuid.New()

	freshID := uuid.New()
	staleID := uuid.New()

	h := &StudyHandler{active: map[uuid.UUID]*activeSession{
		freshID: trackedSession(userID, now.Add(-time.Hour)),
		staleID: trackedSession(userID, now.Add(-25*time.Hour)),
	}}

	stale := h.takeStale(now)

	if len(stale) != 1 || stale[0] != staleID {
		t.Fatalf("expected only the day-old session evicted, got %v", stale)
	}
	if _, ok := h.active[freshID]; !ok {
		t.Errorf("fresh session must survive the sweep")
	}
	if _, ok := h.active[staleID]; ok {
		t.Errorf("stale session must be removed from the active map")
	}
}

func TestTakeStale_NothingStale(t *testing.T) {
	now := time.Now()
	id := uuid.New()

	h := &StudyHandler{active: map[uuid.UUID]*activeSession{
		id: trackedSession(uuid.New(), now.Add(-23*time.Hour)),
	}}

	if stale := h.takeStale(now); len(stale) != 0 {
		t.Fatalf("expected no evictions, got %v", stale)
	}
	if len(h.active) != 1 {
		t.Errorf("active session must remain tracked")
	}
}
