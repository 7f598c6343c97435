package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cardbox-backend/internal/middleware"
	"cardbox-backend/internal/models"
	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/srs"
)

type DashboardHandler struct {
	cardRepo   *repository.CardRepo
	reviewRepo *repository.ReviewRepo
	statsRepo  *repository.StatsRepo
}

func NewDashboardHandler(cardRepo *repository.CardRepo, reviewRepo *repository.ReviewRepo, statsRepo *repository.StatsRepo) *DashboardHandler {
	return &DashboardHandler{cardRepo: cardRepo, reviewRepo: reviewRepo, statsRepo: statsRepo}
}

// Stats recomputes aggregates from the review history on every read. The
// streak decays against the current wall clock here, so a lapsed streak
// shows as 0 even before the next background pass persists it.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, cards, ok := h.liveStats(w, r, userID)
	if !ok {
		return
	}

	breakdown := srs.ReviewBreakdown(cards, time.Now())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"breakdown": breakdown,
	})
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, _, ok := h.liveStats(w, r, userID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak":          stats.StreakDays,
		"last_study_date": stats.LastStudyDate,
	})
}

// Activity returns review counts per weekday (Sunday first) for the chart
// on the dashboard.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counts, err := h.reviewRepo.WeekdayCounts(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch activity", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": counts})
}

func (h *DashboardHandler) liveStats(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.UserStats, []models.Card, bool) {
	ctx := r.Context()

	prior, err := h.statsRepo.Get(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch stats", r))
		return nil, nil, false
	}

	history, err := h.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch review history", r))
		return nil, nil, false
	}

	cards, err := h.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch cards", r))
		return nil, nil, false
	}

	stats := srs.RecomputeStats(history, *prior, time.Now())
	stats.UserID = userID
	stats.CardsLearned = srs.CountLearned(cards)

	if stats.StreakDays != prior.StreakDays || stats.TotalReviews != prior.TotalReviews || stats.CardsLearned != prior.CardsLearned {
		h.statsRepo.Upsert(ctx, &stats)
	}

	return &stats, cards, true
}

// User & Settings handler

type UserHandler struct {
	userRepo *repository.UserRepo
}

func NewUserHandler(userRepo *repository.UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var update struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	json.NewDecoder(r.Body).Decode(&update)

	if update.FullName != "" {
		user.FullName = update.FullName
	}
	if update.Email != "" {
		user.Email = update.Email
	}

	if err := h.userRepo.Update(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Current password is incorrect", r))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to hash password", r))
		return
	}

	h.userRepo.UpdatePassword(r.Context(), userID, string(hash))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.userRepo.Delete(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	settings, err := h.userRepo.GetSettings(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Settings not found", r))
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var s models.UserSettings
	json.NewDecoder(r.Body).Decode(&s)
	s.UserID = userID

	if err := h.userRepo.UpdateSettings(r.Context(), &s); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update settings", r))
		return
	}

	writeJSON(w, http.StatusOK, s)
}

func defaultNotificationPreferences() map[string]bool {
	return map[string]bool{
		"study_reminders": false,
		"streak_alerts":   true,
	}
}

// mergeNotificationPreferences overlays stored values on the defaults.
// Only known keys with proper boolean values survive the merge.
func mergeNotificationPreferences(raw json.RawMessage) map[string]bool {
	prefs := defaultNotificationPreferences()

	if len(raw) == 0 {
		return prefs
	}

	var stored map[string]interface{}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return prefs
	}

	for key := range prefs {
		if v, ok := stored[key].(bool); ok {
			prefs[key] = v
		}
	}
	return prefs
}

func (h *UserHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	settings, err := h.userRepo.GetSettings(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Settings not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": mergeNotificationPreferences(settings.NotificationsJSON),
	})
}

func (h *UserHandler) UpdateNotificationSetting(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Key     string `json:"key"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if _, known := defaultNotificationPreferences()[req.Key]; !known {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown notification key", r))
		return
	}

	if err := h.userRepo.SetNotificationSetting(r.Context(), userID, req.Key, req.Enabled); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update notification setting", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{req.Key: req.Enabled})
}

// Job handler

type JobHandler struct {
	jobRepo *repository.JobRepo
}

func NewJobHandler(jobRepo *repository.JobRepo) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid job ID", r))
		return
	}

	job, err := h.jobRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Job not found", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if job.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, job)
}
