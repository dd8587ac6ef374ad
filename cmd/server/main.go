package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/cache"
	"github.com/stemsi/quizgen/internal/chunker"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/database"
	"github.com/stemsi/quizgen/internal/handler"
	"github.com/stemsi/quizgen/internal/llm"
	"github.com/stemsi/quizgen/internal/logger"
	"github.com/stemsi/quizgen/internal/quality"
	"github.com/stemsi/quizgen/internal/repository"
	"github.com/stemsi/quizgen/internal/router"
	"github.com/stemsi/quizgen/internal/service"
	"github.com/stemsi/quizgen/internal/validator"
)

const version = "1.0.0"

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("model", cfg.OllamaModel).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Quizgen")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis (optional) ───────────────────────────────────
	// The cache is an accelerator, not a dependency: if Redis is down the
	// service starts without it and every lookup is a miss.
	var store cache.Store
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, response caching disabled")
	} else {
		defer rdb.Close()
		store = cache.NewRedisStore(rdb, cfg.CacheTTL, log)
	}

	// ─── Connect to PostgreSQL (optional) ──────────────────────────────
	// The archive keeps accepted questions for later review. It is off by
	// default and skipped entirely when no DATABASE_URL is set.
	var questionRepo *repository.QuestionRepository
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, question archive disabled")
		} else {
			defer pool.Close()
			questionRepo = repository.NewQuestionRepository(pool)
		}
	}

	// ─── Initialize Pipeline ───────────────────────────────────────────
	chk := chunker.New(chunker.NewRegexSegmenter(), log)
	llmClient := llm.NewClient(cfg, log)
	qualityValidator := quality.NewValidator(cfg.MinQualityScore, log)

	var archive service.QuestionArchiver
	if questionRepo != nil {
		archive = questionRepo
	}
	generator := service.NewGeneratorService(chk, llmClient, qualityValidator, store, archive, cfg, log)

	// ─── Probe Model Backend ───────────────────────────────────────────
	// Startup succeeds even when the model is down; readiness reports it.
	if status := llmClient.CheckHealth(ctx); !status.Healthy {
		log.Warn().Str("error", status.Error).Msg("Model backend not reachable at startup")
	} else if !status.ModelAvailable {
		log.Warn().
			Str("model", cfg.OllamaModel).
			Strs("available", status.Models).
			Msg("Configured model not found on backend")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Question: handler.NewQuestionHandler(generator, questionRepo),
		Health:   handler.NewHealthHandler(llmClient, store, version),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
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

	// In-flight generation calls can run long; give them time to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
