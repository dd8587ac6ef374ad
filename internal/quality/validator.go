package quality

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/model"
)

// Validator scores untrusted candidate questions through four ordered stages
// (schema, length, quality, semantic) and yields a pass/fail decision with a
// normalized quality score. The stage functions are pure; Validator only
// holds the acceptance threshold and a logger.
type Validator struct {
	minQualityScore float64
	log             zerolog.Logger
}

// NewValidator creates a Validator with the given acceptance threshold.
func NewValidator(minQualityScore float64, log zerolog.Logger) *Validator {
	return &Validator{
		minQualityScore: minQualityScore,
		log:             log.With().Str("component", "validator").Logger(),
	}
}

// Validate runs all stages over a raw candidate. The returned question is nil
// when the schema stage fails; otherwise it is always constructed, with
// ValidationPassed carrying the overall decision.
//
// expectedDifficulty overrides the candidate's own difficulty field when set.
// sourceText enables the semantic stage; empty means it trivially passes.
func (v *Validator) Validate(data map[string]any, expectedDifficulty model.DifficultyLevel, sourceText string) (model.ValidationResult, *model.GeneratedQuestion) {
	issues := []string{}
	stageResults := make(map[string]bool)
	stageScores := make(map[string]float64)
	metrics := make(map[string]any)

	schemaValid, schemaIssues, schemaScore := validateSchema(data)
	stageResults["schema"] = schemaValid
	stageScores["schema"] = schemaScore
	issues = append(issues, schemaIssues...)

	if !schemaValid {
		// Nothing downstream can run without a usable structure.
		metrics["stage_scores"] = stageScores
		return model.ValidationResult{
			IsValid:      false,
			QualityScore: 0.0,
			StageResults: stageResults,
			Issues:       issues,
			Metrics:      metrics,
		}, nil
	}

	lengthValid, lengthIssues, lengthScore, lengthMetrics := validateLengths(data)
	stageResults["length"] = lengthValid
	stageScores["length"] = lengthScore
	issues = append(issues, lengthIssues...)
	metrics["length"] = lengthMetrics

	qualityValid, qualityIssues, qualityScore, qualityMetrics := validateQuality(data)
	stageResults["quality"] = qualityValid
	stageScores["quality"] = qualityScore
	issues = append(issues, qualityIssues...)
	metrics["quality"] = qualityMetrics

	semanticValid, semanticIssues, semanticScore, semanticMetrics := validateSemantic(data, sourceText)
	stageResults["semantic"] = semanticValid
	stageScores["semantic"] = semanticScore
	issues = append(issues, semanticIssues...)
	metrics["semantic"] = semanticMetrics

	overall := schemaScore*weightSchema +
		lengthScore*weightLength +
		qualityScore*weightQuality +
		semanticScore*weightSemantic

	metrics["stage_scores"] = stageScores

	isValid := overall >= v.minQualityScore &&
		schemaValid &&
		(lengthValid || lengthScore >= 0.5)

	question, buildErr := buildQuestion(data, expectedDifficulty, overall, isValid)
	if buildErr != nil {
		isValid = false
		issues = append(issues, fmt.Sprintf("Question construction failed: %v", buildErr))
	} else if !isValid {
		// The decision may have flipped after construction; keep the flag
		// on the trusted object in sync.
		question.ValidationPassed = false
	}

	v.log.Debug().
		Bool("is_valid", isValid).
		Float64("quality_score", overall).
		Int("issue_count", len(issues)).
		Msg("Question validation completed")

	return model.ValidationResult{
		IsValid:      isValid,
		QualityScore: overall,
		StageResults: stageResults,
		Issues:       issues,
		Metrics:      metrics,
	}, question
}

// BatchValidate validates multiple candidates in order.
func (v *Validator) BatchValidate(candidates []map[string]any, expectedDifficulty model.DifficultyLevel, sourceText string) []model.ValidationResult {
	results := make([]model.ValidationResult, 0, len(candidates))
	for _, c := range candidates {
		result, _ := v.Validate(c, expectedDifficulty, sourceText)
		results = append(results, result)
	}
	return results
}

// buildQuestion coerces a schema-valid candidate into the trusted form.
func buildQuestion(data map[string]any, expectedDifficulty model.DifficultyLevel, score float64, passed bool) (*model.GeneratedQuestion, error) {
	difficulty := expectedDifficulty
	if difficulty == "" {
		raw := asString(data["difficulty"])
		if raw == "" {
			raw = string(model.DifficultyMedium)
		}
		parsed, err := model.ParseDifficulty(raw)
		if err != nil {
			return nil, err
		}
		difficulty = parsed
	}

	rawOptions, _ := data["options"].([]any)
	options := make([]model.QuestionOption, 0, len(rawOptions))
	for i, raw := range rawOptions {
		opt, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("option %d is not an object", i)
		}
		options = append(options, model.QuestionOption{
			ID:   asString(opt["id"]),
			Text: asString(opt["text"]),
		})
	}

	return &model.GeneratedQuestion{
		QuestionText:     asString(data["questionText"]),
		Options:          options,
		CorrectAnswer:    asString(data["correctAnswer"]),
		Explanation:      asString(data["explanation"]),
		Difficulty:       difficulty,
		QualityScore:     score,
		ValidationPassed: passed,
	}, nil
}
