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

type DeckHandler struct {
	deckRepo *repository.DeckRepo
	cardRepo *repository.CardRepo
}

func NewDeckHandler(deckRepo *repository.DeckRepo, cardRepo *repository.CardRepo) *DeckHandler {
	return &DeckHandler{deckRepo: deckRepo, cardRepo: cardRepo}
}

func (h *DeckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "name is required", r))
		return
	}

	deck := &models.Deck{
		UserID:      middleware.GetUserID(r.Context()),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.deckRepo.Create(r.Context(), deck); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create deck", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"deck": deck})
}

func (h *DeckHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	decks, err := h.deckRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch decks", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"decks": decks})
}

func (h *DeckHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, _ := h.cardRepo.ListByDeck(r.Context(), deck.ID)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deck":  deck,
		"cards": cards,
	})
}

func (h *DeckHandler) Update(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	var req models.CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name != "" {
		deck.Name = req.Name
	}
	deck.Description = req.Description

	if err := h.deckRepo.Update(r.Context(), deck); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"deck": deck})
}

func (h *DeckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	if err := h.deckRepo.Delete(r.Context(), deck.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete deck", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deck deleted"})
}

func (h *DeckHandler) Stats(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, err := h.cardRepo.ListByDeck(r.Context(), deck.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	now := time.Now()
	stats := models.DeckStats{TotalCards: len(cards)}
	for _, c := range cards {
		switch srs.CardStatus(c) {
		case srs.StatusNew:
			stats.New++
		case srs.StatusLearning:
			stats.Learning++
		case srs.StatusReview:
			stats.Review++
		case srs.StatusMastered:
			stats.Mastered++
		}
	}
	stats.DueToday = len(srs.DueCards(cards, now, nil))
	if stats.TotalCards > 0 {
		stats.MasteryRate = float64(stats.Mastered) / float64(stats.TotalCards)
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *DeckHandler) Cards(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, err := h.cardRepo.ListByDeck(r.Context(), deck.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

func (h *DeckHandler) Due(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.ownedDeck(w, r)
	if !ok {
		return
	}

	cards, err := h.cardRepo.ListByDeck(r.Context(), deck.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	due := srs.DueCards(cards, time.Now(), nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cards": due,
		"count": len(due),
	})
}

// ownedDeck loads the deck in the URL and enforces ownership, writing the
// error response itself when the lookup fails.
func (h *DeckHandler) ownedDeck(w http.ResponseWriter, r *http.Request) (*models.Deck, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid deck ID", r))
		return nil, false
	}

	deck, err := h.deckRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Deck not found", r))
		return nil, false
	}

	userID := middleware.GetUserID(r.Context())
	if deck.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return nil, false
	}

	return deck, true
}
