package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardbox-backend/internal/config"
	"cardbox-backend/internal/database"
	"cardbox-backend/internal/handlers"
	"cardbox-backend/internal/middleware"
	"cardbox-backend/internal/repository"
	"cardbox-backend/internal/router"
	"cardbox-backend/internal/services"
	"cardbox-backend/internal/websocket"
	"cardbox-backend/internal/worker"
)

func main() {
	log.Println("Starting Cardbox Backend...")

	cfg := config.Load()
	log.Println("Environment variables loaded")

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("PostgreSQL connected")

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("Redis connected")

	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	log.Println("Database migrations applied")

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	deckRepo := repository.NewDeckRepo(pool)
	cardRepo := repository.NewCardRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// Services
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth, emailService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	deckHandler := handlers.NewDeckHandler(deckRepo, cardRepo)
	cardHandler := handlers.NewCardHandler(cardRepo, deckRepo, reviewRepo)
	studyHandler := handlers.NewStudyHandler(sessionRepo, deckRepo, cardRepo, reviewRepo, jobRepo, redisClients.Queue)
	dashboardHandler := handlers.NewDashboardHandler(cardRepo, reviewRepo, statsRepo)
	userHandler := handlers.NewUserHandler(userRepo)
	exportHandler := handlers.NewExportHandler(deckRepo, cardRepo, sessionRepo, reviewRepo, statsRepo, jobRepo, redisClients.Queue)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// Background workers
	workerPool := worker.NewPool(
		redisClients.Queue,
		jobRepo,
		deckRepo,
		cardRepo,
		sessionRepo,
		reviewRepo,
		statsRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("Worker pool started (%d goroutines)", cfg.WorkerCount)

	notificationScheduler := services.NewNotificationScheduler(userRepo, cardRepo, reviewRepo, statsRepo, emailService)
	notificationScheduler.Start()

	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("WebSocket hub started")

	r := router.New(
		jwtAuth,
		authHandler,
		deckHandler,
		cardHandler,
		studyHandler,
		dashboardHandler,
		userHandler,
		exportHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		notificationScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Cardbox Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
