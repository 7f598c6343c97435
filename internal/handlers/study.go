package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardbox-backend/internal/middleware"
	"cardbox-backend/internal/models"
	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/srs"
)

// activeSession pairs an in-memory tracker with the user it belongs to.
// Trackers never outlive the process: a session lost to a restart is simply
// re-started by the client. Sessions the client walks away from are swept
// once they turn a day old, and their unended rows dropped with them.
type activeSession struct {
	userID  uuid.UUID
	tracker *srs.Tracker
}

// staleSessionAge is how long an unfinished session may sit idle before the
// next session start evicts it.
const staleSessionAge = 24 * time.Hour

type StudyHandler struct {
	sessionRepo *repository.SessionRepo
	deckRepo    *repository.DeckRepo
	cardRepo    *repository.CardRepo
	reviewRepo  *repository.ReviewRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client

	mu     sync.Mutex
	active map[uuid.UUID]*activeSession
}

func NewStudyHandler(
	sessionRepo *repository.SessionRepo,
	deckRepo *repository.DeckRepo,
	cardRepo *repository.CardRepo,
	reviewRepo *repository.ReviewRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) *StudyHandler {
	return &StudyHandler{
		sessionRepo: sessionRepo,
		deckRepo:    deckRepo,
		cardRepo:    cardRepo,
		reviewRepo:  reviewRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
		active:      make(map[uuid.UUID]*activeSession),
	}
}

func (h *StudyHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		DeckID string `json:"deck_id"`
		Limit  int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deckID, err := uuid.Parse(req.DeckID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck_id", r))
		return
	}

	deck, err := h.deckRepo.GetByID(r.Context(), deckID)
	if err != nil || deck.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return
	}

	cards, err := h.cardRepo.ListByDeck(r.Context(), deckID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	now := time.Now()
	h.evictStale(r.Context(), now)

	due := srs.DueCards(cards, now, nil)
	if req.Limit > 0 && len(due) > req.Limit {
		due = due[:req.Limit]
	}
	if len(due) == 0 {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "No cards are due in this deck", r))
		return
	}

	session := &models.StudySession{
		UserID:    userID,
		DeckID:    deckID,
		StartedAt: now,
	}
	if err := h.sessionRepo.Start(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start study session", r))
		return
	}

	cardIDs := make([]uuid.UUID, len(due))
	for i, c := range due {
		cardIDs[i] = c.ID
	}

	h.mu.Lock()
	h.active[session.ID] = &activeSession{
		userID:  userID,
		tracker: srs.NewTracker(session.ID, deckID, cardIDs, now),
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
		"cards":   due,
	})
}

// Begin marks a card as shown so the session's time-spent reflects
// viewing time, not queue position.
func (h *StudyHandler) Begin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req struct {
		CardID string `json:"card_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card_id", r))
		return
	}

	sess, ok := h.lookup(sessionID, userID, w, r)
	if !ok {
		return
	}

	sess.tracker.Begin(cardID, time.Now())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Card shown"})
}

func (h *StudyHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req struct {
		CardID      string `json:"card_id"`
		Rating      int    `json:"rating"`
		TimeSpentMs int    `json:"time_spent_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card_id", r))
		return
	}

	rating := srs.Rating(req.Rating)
	if !rating.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Rating must be 0-5", r))
		return
	}

	sess, ok := h.lookup(sessionID, userID, w, r)
	if !ok {
		return
	}

	if err := sess.tracker.Rate(cardID, rating); err != nil {
		switch err {
		case srs.ErrUnknownCard:
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Card is not part of this session", r))
		case srs.ErrSessionFinalized:
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Session has already ended", r))
		default:
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		}
		return
	}

	card, err := h.cardRepo.GetByID(r.Context(), cardID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return
	}

	now := time.Now()
	prior := srs.ReviewState{
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		Repetitions:  card.Repetitions,
		LastReviewed: card.LastReviewed,
		NextReview:   card.NextReview,
	}
	next, err := srs.Schedule(prior, rating, now)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	if err := h.cardRepo.UpdateSchedule(r.Context(), cardID, next); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save card schedule", r))
		return
	}

	event := &models.ReviewEvent{
		UserID:      userID,
		CardID:      cardID,
		DeckID:      sess.tracker.DeckID,
		Rating:      req.Rating,
		TimeSpentMs: req.TimeSpentMs,
		CreatedAt:   now,
	}
	if err := h.reviewRepo.Append(r.Context(), event); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record review", r))
		return
	}

	card.EaseFactor = next.EaseFactor
	card.IntervalDays = next.IntervalDays
	card.Repetitions = next.Repetitions
	card.LastReviewed = next.LastReviewed
	card.NextReview = next.NextReview

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"card":     card,
		"rated":    sess.tracker.Rated(),
		"complete": sess.tracker.Complete(),
	})
}

func (h *StudyHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	sess, ok := h.lookup(sessionID, userID, w, r)
	if !ok {
		return
	}

	now := time.Now()
	summary, err := sess.tracker.Finalize(now)
	if err == srs.ErrSessionEmpty {
		// Nothing was studied. Drop the row instead of keeping an empty
		// session in the history.
		h.sessionRepo.Discard(r.Context(), sessionID)
		h.forget(sessionID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Session discarded"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Session has already ended", r))
		return
	}

	if err := h.sessionRepo.Finalize(r.Context(), sessionID, summary.EndedAt, summary.CardsStudied, summary.CardsCorrect); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to end study session", r))
		return
	}
	h.deckRepo.TouchLastStudied(r.Context(), sess.tracker.DeckID, summary.EndedAt)
	h.forget(sessionID)

	h.enqueueStatsRecompute(r, userID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards_studied": summary.CardsStudied,
		"cards_correct": summary.CardsCorrect,
		"time_spent_ms": summary.TimeSpent.Milliseconds(),
		"ended_at":      summary.EndedAt,
	})
}

func (h *StudyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.sessionRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch sessions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *StudyHandler) lookup(sessionID, userID uuid.UUID, w http.ResponseWriter, r *http.Request) (*activeSession, bool) {
	h.mu.Lock()
	sess, ok := h.active[sessionID]
	h.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found or already ended", r))
		return nil, false
	}
	if sess.userID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}
	return sess, true
}

func (h *StudyHandler) forget(sessionID uuid.UUID) {
	h.mu.Lock()
	delete(h.active, sessionID)
	h.mu.Unlock()
}

// takeStale removes trackers older than staleSessionAge from the active map
// and returns their session IDs.
func (h *StudyHandler) takeStale(now time.Time) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	var stale []uuid.UUID
	for id, sess := range h.active {
		if now.Sub(sess.tracker.StartedAt) >= staleSessionAge {
			delete(h.active, id)
			stale = append(stale, id)
		}
	}
	return stale
}

// evictStale drops abandoned sessions: the tracker goes, and the unended
// row goes with it so the history shows only sessions that actually ended.
func (h *StudyHandler) evictStale(ctx context.Context, now time.Time) {
	for _, id := range h.takeStale(now) {
		h.sessionRepo.Discard(ctx, id)
	}
}

func (h *StudyHandler) enqueueStatsRecompute(r *http.Request, userID uuid.UUID) {
	job := &models.Job{
		UserID:      userID,
		Type:        "stats-recompute",
		ReferenceID: userID,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		return
	}

	jobBytes, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), "queue:stats-recompute", string(jobBytes))
}
