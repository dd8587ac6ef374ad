package quality

import (
	"fmt"
	"regexp"
	"strings"
)

// Length constraints.
const (
	minQuestionLength    = 10
	maxQuestionLength    = 500
	minOptionLength      = 1
	maxOptionLength      = 200
	minExplanationLength = 20
)

// optionLengthVarianceLimit flags answer sets whose length disparity may give
// the answer away (chars squared).
const optionLengthVarianceLimit = 2000

// Stage weights composing the overall quality score.
const (
	weightSchema   = 0.20
	weightLength   = 0.20
	weightQuality  = 0.35
	weightSemantic = 0.25
)

var expectedOptionIDs = map[string]struct{}{"A": {}, "B": {}, "C": {}, "D": {}}

var negativePhrasing = regexp.MustCompile(`\b(not|except|never|none)\b`)

var significantWord = regexp.MustCompile(`\b\w{4,}\b`)

// validateSchema checks that the candidate has the required structure. The
// stage is decisive: a score below 0.5 aborts the whole validation.
func validateSchema(data map[string]any) (bool, []string, float64) {
	var issues []string
	score := 1.0

	required := []string{"questionText", "options", "correctAnswer", "explanation"}
	missingRequired := false
	for _, field := range required {
		if _, ok := data[field]; !ok {
			issues = append(issues, fmt.Sprintf("Missing required field: %s", field))
			score -= 0.25
			missingRequired = true
		}
	}

	if score < 0.5 {
		return false, issues, clampScore(score)
	}

	rawOptions, ok := data["options"].([]any)
	if _, present := data["options"]; present && !ok {
		issues = append(issues, "Options must be a list")
		return false, issues, 0.0
	}

	if len(rawOptions) != 4 {
		issues = append(issues, fmt.Sprintf("Expected 4 options, got %d", len(rawOptions)))
		score -= 0.2
	}

	optionIDs := make(map[string]struct{})
	for i, raw := range rawOptions {
		opt, ok := raw.(map[string]any)
		if !ok {
			issues = append(issues, fmt.Sprintf("Option %d is not an object", i))
			score -= 0.1
			continue
		}

		if id, ok := opt["id"]; ok {
			optionIDs[asString(id)] = struct{}{}
		} else {
			issues = append(issues, fmt.Sprintf("Option %d missing 'id'", i))
			score -= 0.05
		}

		if _, ok := opt["text"]; !ok {
			issues = append(issues, fmt.Sprintf("Option %d missing 'text'", i))
			score -= 0.05
		}
	}

	if !sameIDSet(optionIDs, expectedOptionIDs) {
		if missing := idSetDiff(expectedOptionIDs, optionIDs); missing != "" {
			issues = append(issues, "Missing option IDs: "+missing)
		}
		if extra := idSetDiff(optionIDs, expectedOptionIDs); extra != "" {
			issues = append(issues, "Unexpected option IDs: "+extra)
		}
		score -= 0.1
	}

	correct := asString(data["correctAnswer"])
	if _, ok := expectedOptionIDs[correct]; !ok {
		issues = append(issues, fmt.Sprintf("Invalid correct answer: %s", correct))
		score -= 0.2
	}

	valid := score >= 0.5 && !missingRequired
	return valid, issues, clampScore(score)
}

// validateLengths checks question, option and explanation text lengths and
// the answer-revealing option length variance.
func validateLengths(data map[string]any) (bool, []string, float64, map[string]any) {
	var issues []string
	score := 1.0
	metrics := make(map[string]any)

	questionText := asString(data["questionText"])
	qLen := len(questionText)
	metrics["question_length"] = qLen

	if qLen < minQuestionLength {
		issues = append(issues, fmt.Sprintf("Question too short (%d chars, min %d)", qLen, minQuestionLength))
		score -= 0.3
	} else if qLen > maxQuestionLength {
		issues = append(issues, fmt.Sprintf("Question too long (%d chars, max %d)", qLen, maxQuestionLength))
		score -= 0.1
	}

	var optionLengths []int
	for _, opt := range optionMaps(data) {
		text, ok := opt["text"]
		if !ok {
			continue
		}
		optLen := len(asString(text))
		optionLengths = append(optionLengths, optLen)

		id := asString(opt["id"])
		if id == "" {
			id = "?"
		}
		if optLen < minOptionLength {
			issues = append(issues, fmt.Sprintf("Option %s too short", id))
			score -= 0.1
		} else if optLen > maxOptionLength {
			issues = append(issues, fmt.Sprintf("Option %s too long", id))
			score -= 0.05
		}
	}
	metrics["option_lengths"] = optionLengths

	if len(optionLengths) > 0 {
		variance := lengthVariance(optionLengths)
		metrics["option_length_variance"] = variance
		if variance > optionLengthVarianceLimit {
			issues = append(issues, "Large variance in option lengths (may reveal answer)")
			score -= 0.1
		}
	}

	expLen := len(asString(data["explanation"]))
	metrics["explanation_length"] = expLen
	if expLen < minExplanationLength {
		issues = append(issues, fmt.Sprintf("Explanation too short (%d chars)", expLen))
		score -= 0.2
	}

	return score >= 0.6, issues, clampScore(score), metrics
}

// validateQuality runs heuristic content checks on the candidate.
func validateQuality(data map[string]any) (bool, []string, float64, map[string]any) {
	var issues []string
	score := 1.0
	metrics := make(map[string]any)

	questionText := asString(data["questionText"])
	options := optionMaps(data)

	if !strings.HasSuffix(strings.TrimSpace(questionText), "?") {
		issues = append(issues, "Question should end with '?'")
		score -= 0.1
	}

	for _, opt := range options {
		text := strings.ToLower(asString(opt["text"]))
		if strings.Contains(text, "all of the above") || strings.Contains(text, "none of the above") {
			issues = append(issues, "Avoid 'all/none of the above' options")
			score -= 0.15
			break
		}
	}

	if negativePhrasing.MatchString(strings.ToLower(questionText)) {
		issues = append(issues, "Consider avoiding negative phrasing in questions")
		score -= 0.05
		metrics["has_negative_phrasing"] = true
	}

	seen := make(map[string]struct{})
	for _, opt := range options {
		text := strings.TrimSpace(strings.ToLower(asString(opt["text"])))
		if _, dup := seen[text]; dup {
			issues = append(issues, "Duplicate options detected")
			score -= 0.3
			metrics["has_duplicates"] = true
			break
		}
		seen[text] = struct{}{}
	}

	if correct := findOption(options, asString(data["correctAnswer"])); correct != nil {
		correctText := strings.ToLower(asString(correct["text"]))
		explanation := strings.ToLower(asString(data["explanation"]))
		if !shareSignificantWord(correctText, explanation) {
			issues = append(issues, "Explanation may not clearly relate to correct answer")
			score -= 0.1
		}
	}

	metrics["quality_score"] = clampScore(score)
	return score >= 0.5, issues, clampScore(score), metrics
}

// validateSemantic measures the candidate's groundedness in the source text.
// With no source text the stage trivially passes.
func validateSemantic(data map[string]any, sourceText string) (bool, []string, float64, map[string]any) {
	var issues []string
	score := 1.0
	metrics := make(map[string]any)

	if sourceText == "" {
		return true, issues, score, metrics
	}

	sourceLower := strings.ToLower(sourceText)

	questionWords := significantWords(asString(data["questionText"]))
	found := 0
	for w := range questionWords {
		if strings.Contains(sourceLower, w) {
			found++
		}
	}
	coverage := 0.0
	if len(questionWords) > 0 {
		coverage = float64(found) / float64(len(questionWords))
	}
	metrics["term_coverage"] = coverage
	metrics["question_terms"] = len(questionWords)
	metrics["terms_found"] = found

	if coverage < 0.3 {
		issues = append(issues, "Question may not be well-grounded in source text")
		score -= 0.2
	}

	if correct := findOption(optionMaps(data), asString(data["correctAnswer"])); correct != nil {
		correctWords := significantWords(strings.ToLower(asString(correct["text"])))
		correctFound := 0
		for w := range correctWords {
			if strings.Contains(sourceLower, w) {
				correctFound++
			}
		}
		correctCoverage := 0.0
		if len(correctWords) > 0 {
			correctCoverage = float64(correctFound) / float64(len(correctWords))
		}
		metrics["correct_answer_coverage"] = correctCoverage

		if correctCoverage < 0.2 {
			issues = append(issues, "Correct answer may not be supported by source text")
			score -= 0.15
		}
	}

	return score >= 0.5, issues, clampScore(score), metrics
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// optionMaps extracts the option objects from the raw candidate, skipping
// non-object entries.
func optionMaps(data map[string]any) []map[string]any {
	raw, _ := data["options"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func findOption(options []map[string]any, id string) map[string]any {
	if id == "" {
		return nil
	}
	for _, opt := range options {
		if asString(opt["id"]) == id {
			return opt
		}
	}
	return nil
}

func sameIDSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func idSetDiff(a, b map[string]struct{}) string {
	var diff []string
	for _, id := range []string{"A", "B", "C", "D"} {
		_, inA := a[id]
		_, inB := b[id]
		if inA && !inB {
			diff = append(diff, id)
		}
	}
	// Non-standard IDs sort after the expected ones.
	for k := range a {
		if _, expected := expectedOptionIDs[k]; !expected {
			if _, inB := b[k]; !inB {
				diff = append(diff, k)
			}
		}
	}
	return strings.Join(diff, ", ")
}

func lengthVariance(lengths []int) float64 {
	sum := 0
	for _, l := range lengths {
		sum += l
	}
	avg := float64(sum) / float64(len(lengths))

	variance := 0.0
	for _, l := range lengths {
		d := float64(l) - avg
		variance += d * d
	}
	return variance / float64(len(lengths))
}

func significantWords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range significantWord.FindAllString(text, -1) {
		out[strings.ToLower(w)] = struct{}{}
	}
	return out
}

// shareSignificantWord reports whether the two texts share at least one word
// longer than 3 characters.
func shareSignificantWord(a, b string) bool {
	wordsA := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		if len(w) > 3 {
			wordsA[w] = struct{}{}
		}
	}
	for _, w := range strings.Fields(b) {
		if len(w) > 3 {
			if _, ok := wordsA[w]; ok {
				return true
			}
		}
	}
	return false
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
