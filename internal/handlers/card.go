package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cardbox-backend/internal/middleware"
	"cardbox-backend/internal/models"
	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/srs"
)

type CardHandler struct {
	cardRepo   *repository.CardRepo
	deckRepo   *repository.DeckRepo
	reviewRepo *repository.ReviewRepo
}

func NewCardHandler(cardRepo *repository.CardRepo, deckRepo *repository.DeckRepo, reviewRepo *repository.ReviewRepo) *CardHandler {
	return &CardHandler{cardRepo: cardRepo, deckRepo: deckRepo, reviewRepo: reviewRepo}
}

func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	deckID, err := uuid.Parse(req.DeckID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck_id", r))
		return
	}

	if req.Front == "" || req.Back == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "front and back are required", r))
		return
	}

	deck, err := h.deckRepo.GetByID(r.Context(), deckID)
	if err != nil || deck.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return
	}

	card := &models.Card{
		DeckID:     deckID,
		Front:      req.Front,
		Back:       req.Back,
		Tags:       req.Tags,
		EaseFactor: srs.DefaultEaseFactor,
	}

	if err := h.cardRepo.Create(r.Context(), card); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create card", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"card": card})
}

func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req models.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Front != "" {
		card.Front = req.Front
	}
	if req.Back != "" {
		card.Back = req.Back
	}
	if req.Tags != nil {
		card.Tags = req.Tags
	}

	if err := h.cardRepo.UpdateContent(r.Context(), card); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update card", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"card": card})
}

func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	if err := h.cardRepo.Delete(r.Context(), card.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete card", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Card deleted"})
}

// Rate applies one review outcome to a card. The scheduling state is read,
// advanced in memory, and written back in full, and the review lands in the
// append-only history regardless of any session.
func (h *CardHandler) Rate(w http.ResponseWriter, r *http.Request) {
	card, ok := h.ownedCard(w, r)
	if !ok {
		return
	}

	var req models.CardRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	rating := srs.Rating(req.Rating)
	if !rating.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Rating must be 0-5", r))
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

	if err := h.cardRepo.UpdateSchedule(r.Context(), card.ID, next); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save card schedule", r))
		return
	}

	event := &models.ReviewEvent{
		UserID:      middleware.GetUserID(r.Context()),
		CardID:      card.ID,
		DeckID:      card.DeckID,
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

	writeJSON(w, http.StatusOK, map[string]interface{}{"card": card})
}

func (h *CardHandler) ownedCard(w http.ResponseWriter, r *http.Request) (*models.Card, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid card ID", r))
		return nil, false
	}

	card, err := h.cardRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return nil, false
	}

	// Ownership runs through the deck.
	deck, err := h.deckRepo.GetByID(r.Context(), card.DeckID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Card not found", r))
		return nil, false
	}
	if deck.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return card, true
}
