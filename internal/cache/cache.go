// Package cache implements the content-addressed question cache on Redis.
//
// Entries are keyed by a chunk-text fingerprint plus difficulty, never by
// chunk index, so identical chunk text across different requests shares
// entries. Store failures are degraded to cache misses — the cache is an
// optimization, not a dependency.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/chunker"
	"github.com/stemsi/quizgen/internal/model"
)

const keyPrefix = "quizgen:"

// Store is the cache contract consumed by the generation orchestrator.
type Store interface {
	// GetQuestions returns the cached questions for a chunk text and
	// difficulty, or ok=false on a miss.
	GetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel) ([]model.GeneratedQuestion, bool)

	// SetQuestions caches questions for a chunk text and difficulty.
	SetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel, questions []model.GeneratedQuestion)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) bool
}

// questionEnvelope is the JSON payload stored per cache entry.
type questionEnvelope struct {
	Questions  []model.GeneratedQuestion `json:"questions"`
	ChunkHash  string                    `json:"chunk_hash"`
	Difficulty model.DifficultyLevel     `json:"difficulty"`
}

// RedisStore is the Redis-backed Store.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisStore creates a RedisStore with a fixed entry TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "question_cache").Logger(),
	}
}

// QuestionKey builds the cache key for a chunk text and difficulty:
// quizgen:questions:v1:{hash}:{difficulty}.
func QuestionKey(chunkText string, difficulty model.DifficultyLevel) string {
	return fmt.Sprintf("%squestions:v1:%s:%s", keyPrefix, chunker.HashText(chunkText), difficulty)
}

// GetQuestions implements Store.
func (s *RedisStore) GetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel) ([]model.GeneratedQuestion, bool) {
	key := QuestionKey(chunkText, difficulty)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache get failed")
		return nil, false
	}

	var envelope questionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache entry decode failed")
		return nil, false
	}
	if len(envelope.Questions) == 0 {
		return nil, false
	}

	s.log.Debug().
		Str("chunk_hash", envelope.ChunkHash).
		Str("difficulty", string(difficulty)).
		Int("count", len(envelope.Questions)).
		Msg("Cache hit")

	return envelope.Questions, true
}

// SetQuestions implements Store.
func (s *RedisStore) SetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel, questions []model.GeneratedQuestion) {
	key := QuestionKey(chunkText, difficulty)

	payload, err := json.Marshal(questionEnvelope{
		Questions:  questions,
		ChunkHash:  chunker.HashText(chunkText),
		Difficulty: difficulty,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache entry encode failed")
		return
	}

	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Cache set failed")
		return
	}

	s.log.Debug().
		Str("difficulty", string(difficulty)).
		Int("count", len(questions)).
		Msg("Cached questions")
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) bool {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Redis connection check failed")
		return false
	}
	return true
}
