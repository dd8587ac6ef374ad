package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/chunker"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stemsi/quizgen/internal/llm"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns a canned payload or error and counts invocations.
type fakeClient struct {
	payload map[string]any
	err     error
	calls   int
}

func (f *fakeClient) Generate(ctx context.Context, systemPrompt, userPrompt string, params llm.GenerateParams) (*llm.GenerateResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResult{Payload: f.payload, RawResponse: "{}"}, nil
}

// fakeStore is an in-memory cache.Store.
type fakeStore struct {
	entries map[string][]model.GeneratedQuestion
	gets    int
	sets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]model.GeneratedQuestion)}
}

func storeKey(chunkText string, difficulty model.DifficultyLevel) string {
	return chunkText + "|" + string(difficulty)
}

func (f *fakeStore) GetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel) ([]model.GeneratedQuestion, bool) {
	f.gets++
	qs, ok := f.entries[storeKey(chunkText, difficulty)]
	return qs, ok
}

func (f *fakeStore) SetQuestions(ctx context.Context, chunkText string, difficulty model.DifficultyLevel, questions []model.GeneratedQuestion) {
	f.sets++
	f.entries[storeKey(chunkText, difficulty)] = questions
}

func (f *fakeStore) Ping(ctx context.Context) bool { return true }

// fakeArchive records archived questions.
type fakeArchive struct {
	records []*model.ArchivedQuestion
	err     error
}

func (f *fakeArchive) Create(ctx context.Context, q *model.ArchivedQuestion) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, q)
	return nil
}

const sourceText = "Paris is the capital city of France. The city hosts the Louvre museum and sits on the Seine river."

// validCandidate is grounded in sourceText and passes every validation stage.
func validCandidate() map[string]any {
	return map[string]any{
		"questionText": "What is the capital city of France?",
		"options": []any{
			map[string]any{"id": "A", "text": "Paris"},
			map[string]any{"id": "B", "text": "London"},
			map[string]any{"id": "C", "text": "Berlin"},
			map[string]any{"id": "D", "text": "Madrid"},
		},
		"correctAnswer": "A",
		"explanation":   "Paris has been the capital of France for centuries.",
	}
}

func candidatePayload(n int) map[string]any {
	candidates := make([]any, 0, n)
	for i := 0; i < n; i++ {
		candidates = append(candidates, validCandidate())
	}
	return map[string]any{"questions": candidates}
}

func testConfig() *config.Config {
	return &config.Config{
		ChunkSizeWords:    800,
		ChunkOverlapWords: 200,
		MinQualityScore:   0.4,
		LLMTemperature:    0.7,
		LLMTopP:           0.9,
		LLMTopK:           40,
		LLMMaxTokens:      500,
	}
}

func newTestService(client GenerationClient, store *fakeStore, archive QuestionArchiver) *GeneratorService {
	log := zerolog.Nop()
	chk := chunker.New(chunker.NewRegexSegmenter(), log)
	validator := quality.NewValidator(0.4, log)

	var s *GeneratorService
	if store == nil {
		s = NewGeneratorService(chk, client, validator, nil, archive, testConfig(), log)
	} else {
		s = NewGeneratorService(chk, client, validator, store, archive, testConfig(), log)
	}
	return s
}

func TestGenerate_TrimsToRequestedCount(t *testing.T) {
	fc := &fakeClient{payload: candidatePayload(5)}
	store := newFakeStore()
	svc := newTestService(fc, store, nil)

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{
		Text:       sourceText,
		Difficulty: model.DifficultyEasy,
		Count:      3,
	})
	require.NoError(t, err)

	assert.Len(t, resp.Questions, 3)
	assert.Equal(t, 5, resp.TotalGenerated)
	assert.Equal(t, 3, resp.TotalValid)
	assert.False(t, resp.FromCache)
	assert.Equal(t, 1, resp.ChunkCount)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 1, store.sets)

	for _, q := range resp.Questions {
		assert.True(t, q.ValidationPassed)
		assert.Equal(t, model.DifficultyEasy, q.Difficulty)
		assert.Greater(t, q.QualityScore, 0.4)
	}
}

func TestGenerate_CacheHitSkipsClient(t *testing.T) {
	fc := &fakeClient{payload: candidatePayload(5)}
	store := newFakeStore()

	cached := []model.GeneratedQuestion{
		{QuestionText: "Cached one?", ValidationPassed: true},
		{QuestionText: "Cached two?", ValidationPassed: true},
	}
	// The whole input fits in one chunk, so the chunk text is the input.
	store.entries[storeKey(sourceText, model.DifficultyMedium)] = cached

	svc := newTestService(fc, store, nil)
	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{Text: sourceText})
	require.NoError(t, err)

	assert.True(t, resp.FromCache)
	assert.Equal(t, 0, fc.calls)
	assert.Equal(t, 2, resp.TotalGenerated)
	assert.Len(t, resp.Questions, 2)
	assert.Equal(t, "Cached one?", resp.Questions[0].QuestionText)
}

func TestGenerate_CacheOptOut(t *testing.T) {
	fc := &fakeClient{payload: candidatePayload(3)}
	store := newFakeStore()
	store.entries[storeKey(sourceText, model.DifficultyMedium)] = []model.GeneratedQuestion{
		{QuestionText: "Should not be served?"},
	}

	optOut := false
	svc := newTestService(fc, store, nil)
	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{
		Text:     sourceText,
		UseCache: &optOut,
	})
	require.NoError(t, err)

	assert.False(t, resp.FromCache)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, 0, store.gets)
	assert.Equal(t, 0, store.sets)
}

func TestGenerate_EmptyTextFails(t *testing.T) {
	svc := newTestService(&fakeClient{}, nil, nil)

	_, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{Text: "   "})
	require.Error(t, err)

	var chunkErr *chunker.ChunkingError
	assert.True(t, errors.As(err, &chunkErr))
}

func TestGenerate_ClientFailureYieldsZeroQuestions(t *testing.T) {
	fc := &fakeClient{err: &llm.ConnectionError{URL: "http://x", Reason: errors.New("refused")}}
	svc := newTestService(fc, nil, nil)

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{Text: sourceText})
	require.NoError(t, err)

	assert.Empty(t, resp.Questions)
	assert.Equal(t, 0, resp.TotalGenerated)
	assert.Equal(t, 0, resp.TotalValid)
	assert.Equal(t, 1, resp.ChunkCount)
}

func TestGenerate_InvalidCandidatesFiltered(t *testing.T) {
	broken := validCandidate()
	delete(broken, "explanation")

	fc := &fakeClient{payload: map[string]any{
		"questions": []any{validCandidate(), broken},
	}}
	svc := newTestService(fc, nil, nil)

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{Text: sourceText})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalGenerated)
	assert.Equal(t, 1, resp.TotalValid)
	assert.Len(t, resp.Questions, 1)
}

func TestGenerate_ArchivesAcceptedQuestions(t *testing.T) {
	fc := &fakeClient{payload: candidatePayload(2)}
	archive := &fakeArchive{}
	svc := newTestService(fc, nil, archive)

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{
		Text:       sourceText,
		Difficulty: model.DifficultyHard,
		Count:      2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)

	require.Len(t, archive.records, 2)
	for _, rec := range archive.records {
		assert.Equal(t, model.DifficultyHard, rec.Difficulty)
		assert.Len(t, rec.ChunkHash, 16)
	}
}

func TestGenerate_ArchiveFailureDoesNotAffectResponse(t *testing.T) {
	fc := &fakeClient{payload: candidatePayload(2)}
	archive := &fakeArchive{err: errors.New("db down")}
	svc := newTestService(fc, nil, archive)

	resp, err := svc.Generate(context.Background(), &model.QuestionGenerationRequest{Text: sourceText, Count: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Questions, 2)
}

func TestChunkEndpointDefaults(t *testing.T) {
	svc := newTestService(&fakeClient{}, nil, nil)

	// Explicit sizing.
	overlap := 5
	resp, err := svc.Chunk(&model.ChunkingRequest{
		Text:           "Alpha beta gamma delta epsilon. Zeta eta theta iota kappa. Lambda mu nu xi omicron. Rho sigma tau upsilon phi.",
		ChunkSizeWords: 10,
		OverlapWords:   &overlap,
	})
	require.NoError(t, err)
	assert.Greater(t, resp.TotalChunks, 1)

	// Absent sizing falls back to configured defaults (800 words), so a short
	// text stays one chunk.
	resp, err = svc.Chunk(&model.ChunkingRequest{Text: sourceText})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalChunks)
}

func TestValidatePassthrough(t *testing.T) {
	svc := newTestService(&fakeClient{}, nil, nil)

	result, question := svc.Validate(validCandidate(), model.DifficultyMedium, sourceText)
	require.NotNil(t, question)
	assert.True(t, result.IsValid)
	assert.Equal(t, model.DifficultyMedium, question.Difficulty)
}
