package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardbox-backend/internal/models"
	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/srs"
)

type Pool struct {
	redis       *redis.Client
	jobRepo     *repository.JobRepo
	deckRepo    *repository.DeckRepo
	cardRepo    *repository.CardRepo
	sessionRepo *repository.SessionRepo
	reviewRepo  *repository.ReviewRepo
	statsRepo   *repository.StatsRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	jobRepo *repository.JobRepo,
	deckRepo *repository.DeckRepo,
	cardRepo *repository.CardRepo,
	sessionRepo *repository.SessionRepo,
	reviewRepo *repository.ReviewRepo,
	statsRepo *repository.StatsRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		jobRepo:     jobRepo,
		deckRepo:    deckRepo,
		cardRepo:    cardRepo,
		sessionRepo: sessionRepo,
		reviewRepo:  reviewRepo,
		statsRepo:   statsRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:deck-import",
		"queue:stats-recompute",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "deck-import":
			processErr = p.processDeckImport(ctx, &job)
		case "stats-recompute":
			processErr = p.processStatsRecompute(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processDeckImport loads an export document into the importing user's
// account. Every record gets a fresh ID; scheduling state and review
// history carry over as-is so due dates survive the move.
func (p *Pool) processDeckImport(ctx context.Context, job *models.Job) error {
	var doc models.ExportDocument
	if err := json.Unmarshal(job.ConfigJSON, &doc); err != nil {
		return fmt.Errorf("invalid export document: %w", err)
	}
	if len(doc.Decks) == 0 {
		return fmt.Errorf("export document contains no decks")
	}

	deckIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Decks))
	for _, d := range doc.Decks {
		deck := &models.Deck{
			UserID:      job.UserID,
			Name:        d.Name,
			Description: d.Description,
			LastStudied: d.LastStudied,
		}
		if err := p.deckRepo.Create(ctx, deck); err != nil {
			return fmt.Errorf("failed to import deck %q: %w", d.Name, err)
		}
		deckIDs[d.ID] = deck.ID
	}

	cardIDs := make(map[uuid.UUID]uuid.UUID, len(doc.Cards))
	for _, c := range doc.Cards {
		newDeckID, ok := deckIDs[c.DeckID]
		if !ok {
			continue // Card references a deck the document doesn't contain.
		}

		card := c
		card.DeckID = newDeckID
		if err := p.cardRepo.Create(ctx, &card); err != nil {
			return fmt.Errorf("failed to import card into deck %s: %w", newDeckID, err)
		}
		cardIDs[c.ID] = card.ID
	}

	for _, s := range doc.Sessions {
		newDeckID, ok := deckIDs[s.DeckID]
		if !ok || s.EndedAt == nil {
			continue
		}

		session := &models.StudySession{
			UserID:       job.UserID,
			DeckID:       newDeckID,
			StartedAt:    s.StartedAt,
			EndedAt:      s.EndedAt,
			CardsStudied: s.CardsStudied,
			CardsCorrect: s.CardsCorrect,
		}
		if err := p.sessionRepo.Restore(ctx, session); err != nil {
			return fmt.Errorf("failed to import session: %w", err)
		}
	}

	for _, ev := range doc.History {
		newCardID, ok := cardIDs[ev.CardID]
		if !ok {
			continue
		}

		event := &models.ReviewEvent{
			UserID:      job.UserID,
			CardID:      newCardID,
			DeckID:      deckIDs[ev.DeckID],
			Rating:      ev.Rating,
			TimeSpentMs: ev.TimeSpentMs,
			CreatedAt:   ev.CreatedAt,
		}
		if err := p.reviewRepo.Restore(ctx, event); err != nil {
			return fmt.Errorf("failed to import review event: %w", err)
		}
	}

	// Imported history changes the aggregates; recompute right away.
	return p.recomputeStats(ctx, job.UserID)
}

func (p *Pool) processStatsRecompute(ctx context.Context, job *models.Job) error {
	return p.recomputeStats(ctx, job.UserID)
}

func (p *Pool) recomputeStats(ctx context.Context, userID uuid.UUID) error {
	history, err := p.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load review history: %w", err)
	}

	prior, err := p.statsRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	cards, err := p.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}

	stats := srs.RecomputeStats(history, *prior, time.Now())
	stats.UserID = userID
	stats.CardsLearned = srs.CountLearned(cards)

	if err := p.statsRepo.Upsert(ctx, &stats); err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}

	p.publish(ctx, userID, models.WSMessage{
		Type: "stats.updated",
		Payload: models.StatsUpdatedEvent{
			StreakDays:   stats.StreakDays,
			TotalReviews: stats.TotalReviews,
			CardsLearned: stats.CardsLearned,
		},
	})

	return nil
}

func (p *Pool) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.redis.Publish(ctx, "user_updates:"+userID.String(), string(payload))
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.publish(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: getResultType(job.Type),
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < 3 {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), jobQueueName(job.Type), string(jobBytes))
		})
	} else {
		// Max retries reached
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		p.publish(ctx, job.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func jobQueueName(jobType string) string {
	switch jobType {
	case "deck-import":
		return "queue:deck-import"
	case "stats-recompute":
		return "queue:stats-recompute"
	default:
		return "queue:" + jobType
	}
}

func getResultType(jobType string) string {
	switch jobType {
	case "deck-import":
		return "deck"
	default:
		return "stats"
	}
}
