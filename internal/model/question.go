package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DifficultyLevel is the closed set of question difficulties.
type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// ParseDifficulty converts a raw string into a DifficultyLevel.
// The set is fixed; anything else is an error.
func ParseDifficulty(s string) (DifficultyLevel, error) {
	switch DifficultyLevel(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return DifficultyLevel(s), nil
	}
	return "", fmt.Errorf("invalid difficulty level: %q", s)
}

// Difficulties returns all difficulty levels in display order.
func Difficulties() []DifficultyLevel {
	return []DifficultyLevel{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// QuestionOption is a single answer option (A–D) of a multiple choice question.
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// GeneratedQuestion is the validated, trusted form of a question. It is
// created only by the quality validator and never mutated afterwards.
// Callers must check ValidationPassed, not merely presence.
type GeneratedQuestion struct {
	QuestionText     string           `json:"questionText"`
	Options          []QuestionOption `json:"options"`
	CorrectAnswer    string           `json:"correctAnswer"`
	Explanation      string           `json:"explanation"`
	Difficulty       DifficultyLevel  `json:"difficulty"`
	QualityScore     float64          `json:"qualityScore"`
	ValidationPassed bool             `json:"validationPassed"`
}

// ValidationResult reports the outcome of one validation call.
// A fresh value is produced per call and never mutated afterwards.
type ValidationResult struct {
	IsValid      bool            `json:"isValid"`
	QualityScore float64         `json:"qualityScore"`
	StageResults map[string]bool `json:"stageResults"`
	Issues       []string        `json:"issues"`
	Metrics      map[string]any  `json:"metrics"`
}

// QuestionGenerationRequest carries one orchestration run's parameters.
type QuestionGenerationRequest struct {
	Text       string          `json:"text" binding:"required,min=100,max=50000"`
	Difficulty DifficultyLevel `json:"difficulty" binding:"omitempty,difficulty"`
	Count      int             `json:"count" binding:"omitempty,min=1,max=10"`
	UseCache   *bool           `json:"useCache"`
}

// CacheEnabled reports whether the request opted into caching.
// An absent flag means enabled, matching the wire default.
func (r *QuestionGenerationRequest) CacheEnabled() bool {
	return r.UseCache == nil || *r.UseCache
}

// QuestionGenerationResponse is the terminal, externally visible artifact of
// one orchestration run.
type QuestionGenerationResponse struct {
	Questions        []GeneratedQuestion `json:"questions"`
	TotalGenerated   int                 `json:"totalGenerated"`
	TotalValid       int                 `json:"totalValid"`
	FromCache        bool                `json:"fromCache"`
	ChunkCount       int                 `json:"chunkCount"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
}

// ValidateQuestionRequest carries a single raw candidate for the standalone
// validation endpoint. The question payload stays a raw map so the validator
// sees exactly what the caller sent, missing keys included.
type ValidateQuestionRequest struct {
	Question   map[string]any  `json:"question" binding:"required"`
	Difficulty DifficultyLevel `json:"difficulty" binding:"omitempty,difficulty"`
	SourceText string          `json:"sourceText" binding:"omitempty,max=50000"`
}

// ArchivedQuestion is a generated question persisted to the archive.
type ArchivedQuestion struct {
	ID            uuid.UUID        `json:"id"`
	QuestionText  string           `json:"question_text"`
	Options       []QuestionOption `json:"options"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation"`
	Difficulty    DifficultyLevel  `json:"difficulty"`
	QualityScore  float64          `json:"quality_score"`
	ChunkHash     string           `json:"chunk_hash"`
	CreatedAt     time.Time        `json:"created_at"`
}
