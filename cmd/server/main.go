package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/database"
	"github.com/apexlabs/ntamock-backend/internal/event"
	"github.com/apexlabs/ntamock-backend/internal/generator"
	"github.com/apexlabs/ntamock-backend/internal/handler"
	"github.com/apexlabs/ntamock-backend/internal/logger"
	"github.com/apexlabs/ntamock-backend/internal/repository"
	"github.com/apexlabs/ntamock-backend/internal/router"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/session"
	"github.com/apexlabs/ntamock-backend/internal/store"
	"github.com/apexlabs/ntamock-backend/internal/validator"
	"github.com/apexlabs/ntamock-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting NTA mock test backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL and Redis ───────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	events, err := event.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
	}
	defer events.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	feed := store.NewFeed(rdb, log)
	examRepo := repository.NewExamRepository(pool, feed)
	studentRepo := repository.NewStudentRepository(pool, feed)
	resultRepo := repository.NewResultRepository(pool, feed)
	adminRepo := repository.NewAdminRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	gen := generator.NewClient(generator.Config{
		APIKey:     cfg.AIAPIKey,
		BaseURL:    cfg.AIBaseURL,
		Model:      cfg.AIModel,
		MaxRetries: cfg.AIMaxRetries,
		Backoff:    cfg.AIBackoff,
		Timeout:    cfg.AITimeout,
		Referer:    cfg.AIReferer,
	}, log)

	resultQueue := worker.NewResultQueue(rdb)
	pipeline := session.NewPipeline(resultQueue, session.StageDelays{
		Auditing:    cfg.AuditDelay,
		Matching:    cfg.MatchDelay,
		Calculating: cfg.CalculateDelay,
		Finalizing:  cfg.FinalizeDelay,
	}, cfg.SyncTimeout, log)
	manager := session.NewManager(pipeline, nil, cfg.SessionRetention, log)

	authService := service.NewAuthService(cfg, studentRepo, adminRepo, log)
	studentService := service.NewStudentService(studentRepo, log)
	examService := service.NewExamService(examRepo, service.NewRedisExamCache(rdb), events, gen, log)
	resultService := service.NewResultService(resultRepo)
	sessionService := service.NewSessionService(manager, examService, studentRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, studentService, log),
		Exam:        handler.NewExamHandler(examService, log),
		StudentMgmt: handler.NewStudentManagementHandler(studentService, log),
		Session:     handler.NewSessionHandler(sessionService, log),
		WS:          handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Monitor:     handler.NewMonitorHandler(feed, resultService, sessionService, log),
		System:      handler.NewSystemHandler(resultQueue, sessionService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	resultWorker := worker.NewResultWorker(rdb, resultRepo, events, log)
	wg.Add(2)
	go func() {
		defer wg.Done()
		resultWorker.Start(workerCtx)
	}()
	go func() {
		defer wg.Done()
		manager.Run(workerCtx)
	}()

	// Load every exam into Redis before accepting traffic.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	health := func(ctx context.Context) (map[string]string, bool) {
		return database.Health(ctx, pool, rdb)
	}
	r := router.SetupRouter(workerCtx, authService, handlers, health, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Let running submissions reach the queue, then drain workers.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.SyncTimeout+5*time.Second)
	defer drainCancel()
	if n := manager.Drain(drainCtx); n > 0 {
		log.Warn().Int("submissions", n).Msg("Submissions still running at shutdown")
	}
	workerCancel()

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Workers did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
