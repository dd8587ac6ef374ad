package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/chunker"
	"github.com/stemsi/quizgen/internal/llm"
	"github.com/stemsi/quizgen/internal/model"
	"github.com/stemsi/quizgen/internal/repository"
	"github.com/stemsi/quizgen/internal/response"
	"github.com/stemsi/quizgen/internal/service"
	"github.com/stemsi/quizgen/internal/validator"
)

// QuestionHandler handles question generation endpoints.
type QuestionHandler struct {
	generator    *service.GeneratorService
	questionRepo *repository.QuestionRepository
}

// NewQuestionHandler creates a new QuestionHandler. questionRepo may be nil
// when the archive database is not configured.
func NewQuestionHandler(generator *service.GeneratorService, questionRepo *repository.QuestionRepository) *QuestionHandler {
	return &QuestionHandler{generator: generator, questionRepo: questionRepo}
}

// GenerateQuestions godoc
// POST /api/v1/questions/generate
// Generates validated multiple choice questions from the provided text.
func (h *QuestionHandler) GenerateQuestions(c *gin.Context) {
	var req model.QuestionGenerationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), &req)
	if err != nil {
		failPipeline(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ChunkText godoc
// POST /api/v1/questions/chunk
// Splits text into overlapping chunks without generating questions.
func (h *QuestionHandler) ChunkText(c *gin.Context) {
	var req model.ChunkingRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.generator.Chunk(&req)
	if err != nil {
		failPipeline(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ValidateQuestion godoc
// POST /api/v1/questions/validate
// Runs a raw candidate question through the quality validator.
func (h *QuestionHandler) ValidateQuestion(c *gin.Context) {
	var req model.ValidateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, question := h.generator.Validate(req.Question, req.Difficulty, req.SourceText)

	response.Success(c, http.StatusOK, gin.H{
		"result":   result,
		"question": question,
	})
}

// ListDifficulties godoc
// GET /api/v1/questions/difficulties
// Returns the closed set of difficulty levels.
func (h *QuestionHandler) ListDifficulties(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"difficulties": model.Difficulties()})
}

// ListRecent godoc
// GET /api/v1/questions/recent
// Lists archived questions, newest first.
func (h *QuestionHandler) ListRecent(c *gin.Context) {
	if h.questionRepo == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrArchiveUnavailable)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	questions, total, err := h.questionRepo.ListRecent(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.ArchivedQuestion{}
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// failPipeline maps pipeline errors onto the typed API error codes.
func failPipeline(c *gin.Context, err error) {
	var chunkErr *chunker.ChunkingError
	var timeoutErr *llm.TimeoutError
	var connErr *llm.ConnectionError
	var respErr *llm.ResponseError
	var parseErr *llm.ParseError

	switch {
	case errors.As(err, &chunkErr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrChunking, chunkErr.Message)
	case errors.As(err, &timeoutErr):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrLLMTimeout)
	case errors.As(err, &connErr):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrLLMConnection)
	case errors.As(err, &respErr):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrLLMResponse)
	case errors.As(err, &parseErr):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrJSONParse)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
