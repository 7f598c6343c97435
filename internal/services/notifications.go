package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/srs"
)

const (
	studyReminderLastSentKey = "study_reminders_last_sent_at"
	studyReminderInterval    = 24 * time.Hour
	notificationPollInterval = 1 * time.Hour
)

// NotificationScheduler periodically reminds users about due cards. Each
// pass recomputes engagement stats with the current wall clock first, so a
// streak broken by inactivity decays within an hour of the boundary even
// when no new review event arrives.
type NotificationScheduler struct {
	userRepo   *repository.UserRepo
	cardRepo   *repository.CardRepo
	reviewRepo *repository.ReviewRepo
	statsRepo  *repository.StatsRepo
	email      *EmailService
	stopChan   chan struct{}
}

func NewNotificationScheduler(
	userRepo *repository.UserRepo,
	cardRepo *repository.CardRepo,
	reviewRepo *repository.ReviewRepo,
	statsRepo *repository.StatsRepo,
	email *EmailService,
) *NotificationScheduler {
	return &NotificationScheduler{
		userRepo:   userRepo,
		cardRepo:   cardRepo,
		reviewRepo: reviewRepo,
		statsRepo:  statsRepo,
		email:      email,
		stopChan:   make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	if s.userRepo == nil || s.email == nil {
		return
	}

	go s.loop(func(ctx context.Context, now time.Time) {
		s.decayStreaks(ctx, now)
		s.sendStudyReminders(ctx, now)
	})

	log.Printf("Notification scheduler started")
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now())

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now())
		}
	}
}

// decayStreaks recomputes stats for every user holding a streak, so a
// streak broken by inactivity falls to 0 within the hour even if the user
// never comes back.
func (s *NotificationScheduler) decayStreaks(ctx context.Context, now time.Time) {
	userIDs, err := s.statsRepo.ListActiveStreaks(ctx)
	if err != nil {
		log.Printf("streak decay: failed to list users: %v", err)
		return
	}

	for _, userID := range userIDs {
		s.refreshStats(ctx, userID, now)
	}
}

func (s *NotificationScheduler) sendStudyReminders(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListUsersWithNotificationEnabled(ctx, "study_reminders", studyReminderLastSentKey)
	if err != nil {
		log.Printf("study reminders: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		stats := s.refreshStats(ctx, recipient.ID, now)

		if !shouldSendByLastSent(recipient.LastSentAtRaw, studyReminderInterval, now) {
			continue
		}

		// Someone who studied in the last few hours does not need a nudge.
		if lastActivity, err := s.userRepo.GetLatestActivityAt(ctx, recipient.ID); err == nil &&
			lastActivity != nil && now.Sub(*lastActivity) < 12*time.Hour {
			continue
		}

		cards, err := s.cardRepo.ListByUser(ctx, recipient.ID)
		if err != nil {
			log.Printf("study reminders: failed to load cards for user %s: %v", recipient.ID, err)
			continue
		}

		dueCount := len(srs.DueCards(cards, now, nil))
		if dueCount == 0 {
			continue
		}

		streakDays := 0
		if stats != nil {
			streakDays = stats.StreakDays
		}

		if err := s.email.SendStudyReminderEmail(recipient.Email, recipient.FullName, dueCount, streakDays); err != nil {
			log.Printf("study reminders: failed to send to %s: %v", recipient.Email, err)
			continue
		}

		if err := s.userRepo.SetNotificationTimestamp(ctx, recipient.ID, studyReminderLastSentKey, now); err != nil {
			log.Printf("study reminders: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

// refreshStats re-derives engagement stats from history so lazy streak
// decay is applied before any reminder goes out.
func (s *NotificationScheduler) refreshStats(ctx context.Context, userID uuid.UUID, now time.Time) *statsSnapshot {
	prior, err := s.statsRepo.Get(ctx, userID)
	if err != nil {
		log.Printf("study reminders: failed to load stats for user %s: %v", userID, err)
		return nil
	}

	history, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("study reminders: failed to load history for user %s: %v", userID, err)
		return &statsSnapshot{StreakDays: prior.StreakDays}
	}

	updated := srs.RecomputeStats(history, *prior, now)
	if updated.StreakDays != prior.StreakDays || updated.TotalReviews != prior.TotalReviews {
		updated.UserID = userID
		if err := s.statsRepo.Upsert(ctx, &updated); err != nil {
			log.Printf("study reminders: failed to persist stats for user %s: %v", userID, err)
		}
	}

	return &statsSnapshot{StreakDays: updated.StreakDays}
}

type statsSnapshot struct {
	StreakDays int
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}
