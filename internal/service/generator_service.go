package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/cache"
	"github.com/stemsi/quizgen/internal/chunker"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/llm"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/prompt"
	"github.com/stemsi/quizgen/internal/quality"
	"github.com/stemsi/quizgen/internal/repository"
)

// GenerationClient is the outbound generation contract the orchestrator
// depends on, satisfied by llm.Client and substituted in tests.
type GenerationClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params llm.GenerateParams) (*llm.GenerateResult, error)
}

// QuestionArchiver persists accepted questions. Optional; may be nil.
type QuestionArchiver interface {
	Create(ctx context.Context, q *model.ArchivedQuestion) error
}

// GeneratorService orchestrates the question generation pipeline:
// chunk → cache lookup → generate on miss → validate → cache store →
// aggregate → trim.
//
// Failures are scoped to the chunk: a chunk that errors contributes zero
// questions but never aborts the run.
type GeneratorService struct {
	chunker   *chunker.Chunker
	client    GenerationClient
	validator *quality.Validator
	store     cache.Store
	archive   QuestionArchiver
	cfg       *config.Config
	log       zerolog.Logger
}

// NewGeneratorService creates a GeneratorService. store and archive may be
// nil, disabling caching and archival respectively.
func NewGeneratorService(
	chk *chunker.Chunker,
	client GenerationClient,
	validator *quality.Validator,
	store cache.Store,
	archive QuestionArchiver,
	cfg *config.Config,
	log zerolog.Logger,
) *GeneratorService {
	return &GeneratorService{
		chunker:   chk,
		client:    client,
		validator: validator,
		store:     store,
		archive:   archive,
		cfg:       cfg,
		log:       log.With().Str("component", "generator_service").Logger(),
	}
}

// Generate runs one orchestration pass over the request text. Chunks are
// processed sequentially and composed in chunk-index order.
func (s *GeneratorService) Generate(ctx context.Context, req *model.QuestionGenerationRequest) (*model.QuestionGenerationResponse, error) {
	start := time.Now()

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	count := req.Count
	if count == 0 {
		count = 3
	}
	useCache := req.CacheEnabled() && s.store != nil

	s.log.Info().
		Int("text_length", len(req.Text)).
		Str("difficulty", string(difficulty)).
		Int("count", count).
		Bool("use_cache", useCache).
		Msg("Starting question generation")

	chunking, err := s.chunker.Chunk(req.Text, chunker.Options{
		TargetWords:       s.cfg.ChunkSizeWords,
		OverlapWords:      s.cfg.ChunkOverlapWords,
		RespectBoundaries: true,
	})
	if err != nil {
		return nil, err
	}
	chunks := chunking.Chunks

	// Every chunk gets the same share of the requested total.
	questionsPerChunk := count / len(chunks)
	if questionsPerChunk < 1 {
		questionsPerChunk = 1
	}

	allQuestions := []model.GeneratedQuestion{}
	totalGenerated := 0
	fromCache := false

	for _, chunk := range chunks {
		if useCache {
			if cached, ok := s.store.GetQuestions(ctx, chunk.Text, difficulty); ok {
				allQuestions = append(allQuestions, cached...)
				totalGenerated += len(cached)
				fromCache = true
				continue
			}
		}

		accepted, generated := s.generateForChunk(ctx, chunk, difficulty, questionsPerChunk)
		totalGenerated += generated

		if len(accepted) > 0 {
			allQuestions = append(allQuestions, accepted...)
			if useCache {
				s.store.SetQuestions(ctx, chunk.Text, difficulty, accepted)
			}
			s.archiveQuestions(ctx, accepted, chunk.Hash)
		}
	}

	if len(allQuestions) > count {
		allQuestions = allQuestions[:count]
	}

	elapsed := time.Since(start)
	s.log.Info().
		Int("total_generated", totalGenerated).
		Int("valid_questions", len(allQuestions)).
		Int("chunks_processed", len(chunks)).
		Bool("from_cache", fromCache).
		Int64("processing_time_ms", elapsed.Milliseconds()).
		Msg("Question generation completed")

	return &model.QuestionGenerationResponse{
		Questions:        allQuestions,
		TotalGenerated:   totalGenerated,
		TotalValid:       len(allQuestions),
		FromCache:        fromCache,
		ChunkCount:       len(chunks),
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

// Chunk exposes the chunker with the configured defaults, for the standalone
// chunking endpoint.
func (s *GeneratorService) Chunk(req *model.ChunkingRequest) (*model.ChunkingResponse, error) {
	opts := chunker.Options{
		TargetWords:       req.ChunkSizeWords,
		OverlapWords:      s.cfg.ChunkOverlapWords,
		RespectBoundaries: req.RespectSentences == nil || *req.RespectSentences,
	}
	if opts.TargetWords == 0 {
		opts.TargetWords = s.cfg.ChunkSizeWords
	}
	if req.OverlapWords != nil {
		opts.OverlapWords = *req.OverlapWords
	}
	return s.chunker.Chunk(req.Text, opts)
}

// Validate exposes the validator for the standalone validation endpoint.
func (s *GeneratorService) Validate(candidate map[string]any, difficulty model.DifficultyLevel, sourceText string) (model.ValidationResult, *model.GeneratedQuestion) {
	return s.validator.Validate(candidate, difficulty, sourceText)
}

// generateForChunk generates and validates questions for a single chunk.
// All failures are downgraded to a zero yield for this chunk.
func (s *GeneratorService) generateForChunk(ctx context.Context, chunk model.TextChunk, difficulty model.DifficultyLevel, count int) ([]model.GeneratedQuestion, int) {
	userPrompt := prompt.BuildChunkPrompt(prompt.BuildUserPrompt(difficulty, count), chunk.Text)

	result, err := s.client.Generate(ctx, prompt.SystemPrompt(), userPrompt, llm.GenerateParams{
		Temperature: s.cfg.LLMTemperature,
		TopP:        s.cfg.LLMTopP,
		TopK:        s.cfg.LLMTopK,
		MaxTokens:   s.cfg.LLMMaxTokens,
	})
	if err != nil {
		s.log.Error().Err(err).Str("chunk_id", chunk.ID).Msg("Failed to generate questions for chunk")
		return nil, 0
	}

	rawQuestions, _ := result.Payload["questions"].([]any)
	if len(rawQuestions) == 0 {
		s.log.Warn().Str("chunk_id", chunk.ID).Msg("No questions in LLM response")
		return nil, 0
	}

	var accepted []model.GeneratedQuestion
	for _, raw := range rawQuestions {
		candidate, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		validation, question := s.validator.Validate(candidate, difficulty, chunk.Text)
		if validation.IsValid && question != nil {
			accepted = append(accepted, *question)
		} else {
			s.log.Debug().
				Str("chunk_id", chunk.ID).
				Float64("score", validation.QualityScore).
				Strs("issues", headIssues(validation.Issues, 3)).
				Msg("Question failed validation")
		}
	}

	return accepted, len(rawQuestions)
}

// archiveQuestions persists accepted questions best-effort; archive failures
// never affect the response.
func (s *GeneratorService) archiveQuestions(ctx context.Context, questions []model.GeneratedQuestion, chunkHash string) {
	if s.archive == nil {
		return
	}

	for _, q := range questions {
		record := &model.ArchivedQuestion{
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			Difficulty:    q.Difficulty,
			QualityScore:  q.QualityScore,
			ChunkHash:     chunkHash,
		}
		if err := s.archive.Create(ctx, record); err != nil {
			s.log.Warn().Err(err).Str("chunk_hash", chunkHash).Msg("Question archive write failed")
			return
		}
	}
}

func headIssues(issues []string, n int) []string {
	if len(issues) > n {
		return issues[:n]
	}
	return issues
}

// Ensure interface satisfaction.
var _ GenerationClient = (*llm.Client)(nil)
var _ QuestionArchiver = (*repository.QuestionRepository)(nil)
