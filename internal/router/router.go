package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/handler"
	"github.com/stemsi/quizgen/internal/middleware"
	"github.com/stemsi/quizgen/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Question *handler.QuestionHandler
	Health   *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// ─── Health ────────────────────────────────────────────────────────
	router.GET("/health", handlers.Health.Health)
	router.GET("/health/live", handlers.Health.Live)
	router.GET("/health/ready", handlers.Health.Ready)

	// Rate limiter for the generation endpoint. Each call can fan out to
	// multiple model invocations, so the bucket is per minute.
	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRateLimit, time.Minute)

	// ─── Questions ─────────────────────────────────────────────────────
	questions := router.Group("/api/v1/questions")
	{
		questions.POST("/generate", generateLimiter.Middleware(), handlers.Question.GenerateQuestions)
		questions.POST("/chunk", handlers.Question.ChunkText)
		questions.POST("/validate", handlers.Question.ValidateQuestion)
		questions.GET("/difficulties", handlers.Question.ListDifficulties)
		questions.GET("/recent", handlers.Question.ListRecent)
	}

	return router
}
