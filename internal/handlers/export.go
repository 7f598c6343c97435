package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/redis/go-redis/v9"

	"cardbox-backend/internal/middleware"
	"cardbox-backend/internal/models"
	"cardbox-backend/internal/repository"
)

type ExportHandler struct {
	deckRepo    *repository.DeckRepo
	cardRepo    *repository.CardRepo
	sessionRepo *repository.SessionRepo
	reviewRepo  *repository.ReviewRepo
	statsRepo   *repository.StatsRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
}

func NewExportHandler(
	deckRepo *repository.DeckRepo,
	cardRepo *repository.CardRepo,
	sessionRepo *repository.SessionRepo,
	reviewRepo *repository.ReviewRepo,
	statsRepo *repository.StatsRepo,
	jobRepo *repository.JobRepo,
	redisClient *redis.Client,
) *ExportHandler {
	return &ExportHandler{
		deckRepo:    deckRepo,
		cardRepo:    cardRepo,
		sessionRepo: sessionRepo,
		reviewRepo:  reviewRepo,
		statsRepo:   statsRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
	}
}

// Export assembles every persisted record the user owns into one document.
// The output round-trips through Import without loss.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	decks, err := h.deckRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch decks", r))
		return
	}

	cards, err := h.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return
	}

	sessions, err := h.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch sessions", r))
		return
	}

	history, err := h.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch review history", r))
		return
	}

	stats, err := h.statsRepo.Get(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch stats", r))
		return
	}

	doc := models.ExportDocument{
		Decks:    decks,
		Cards:    cards,
		Sessions: sessions,
		History:  history,
		Stats:    stats,
	}

	w.Header().Set("Content-Disposition", `attachment; filename="cardbox-export.json"`)
	writeJSON(w, http.StatusOK, doc)
}

// Import accepts an export document and queues a background job to load it.
// The heavy insert work happens off the request path; the client polls the
// job or listens on the websocket for completion.
func (h *ExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Failed to read request body", r))
		return
	}

	var doc models.ExportDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid export document", r))
		return
	}
	if len(doc.Decks) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Export document contains no decks", r))
		return
	}

	job := &models.Job{
		UserID:      userID,
		Type:        "deck-import",
		ReferenceID: userID,
		ConfigJSON:  body,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), "queue:deck-import", string(jobBytes))

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"decks":  len(doc.Decks),
		"cards":  len(doc.Cards),
	})
}
