package quality

import (
	"strings"
	"testing"
)

func options(texts ...string) []any {
	ids := []string{"A", "B", "C", "D"}
	out := make([]any, 0, len(texts))
	for i, text := range texts {
		out = append(out, map[string]any{"id": ids[i], "text": text})
	}
	return out
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]any
		wantValid bool
		wantIssue string
	}{
		{
			name: "valid",
			data: map[string]any{
				"questionText":  "What happens here?",
				"options":       options("a", "b", "c", "d"),
				"correctAnswer": "A",
				"explanation":   "Because of the first option.",
			},
			wantValid: true,
		},
		{
			name: "wrong option count",
			data: map[string]any{
				"questionText":  "What happens here?",
				"options":       options("a", "b", "c"),
				"correctAnswer": "A",
				"explanation":   "Because of the first option.",
			},
			wantValid: true,
			wantIssue: "Expected 4 options, got 3",
		},
		{
			name: "invalid correct answer",
			data: map[string]any{
				"questionText":  "What happens here?",
				"options":       options("a", "b", "c", "d"),
				"correctAnswer": "E",
				"explanation":   "Because of the first option.",
			},
			wantValid: true,
			wantIssue: "Invalid correct answer: E",
		},
		{
			name:      "all fields missing",
			data:      map[string]any{},
			wantValid: false,
			wantIssue: "Missing required field: questionText",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, issues, score := validateSchema(tt.data)
			if valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v (issues: %v)", valid, tt.wantValid, issues)
			}
			if score < 0 || score > 1 {
				t.Fatalf("score %v out of range", score)
			}
			if tt.wantIssue != "" && !containsIssue(issues, tt.wantIssue) {
				t.Fatalf("issues %v missing %q", issues, tt.wantIssue)
			}
		})
	}
}

func TestValidateLengths(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"questionText":  "What is a reasonably sized question?",
			"options":       options("first", "second", "third", "fourth"),
			"correctAnswer": "A",
			"explanation":   "A long enough explanation of the answer.",
		}
	}

	t.Run("well sized passes", func(t *testing.T) {
		pass, issues, score, _ := validateLengths(base())
		if !pass || !approx(score, 1.0) {
			t.Fatalf("pass = %v, score = %v, issues = %v", pass, score, issues)
		}
	})

	t.Run("short question penalized", func(t *testing.T) {
		data := base()
		data["questionText"] = "Why?"
		data["explanation"] = "too short"
		pass, issues, score, _ := validateLengths(data)
		if pass {
			t.Fatal("expected failure")
		}
		if !approx(score, 0.5) {
			t.Fatalf("score = %v, want 0.5", score)
		}
		if !containsIssue(issues, "Question too short") {
			t.Fatalf("issues = %v", issues)
		}
	})

	t.Run("option length variance flagged", func(t *testing.T) {
		data := base()
		data["options"] = options("yes", "no", "maybe", strings.Repeat("an extremely detailed option ", 5))
		_, issues, _, metrics := validateLengths(data)
		if !containsIssue(issues, "Large variance in option lengths") {
			t.Fatalf("issues = %v", issues)
		}
		if metrics["option_length_variance"].(float64) <= optionLengthVarianceLimit {
			t.Fatalf("variance = %v, expected above limit", metrics["option_length_variance"])
		}
	})

	t.Run("short explanation penalized", func(t *testing.T) {
		data := base()
		data["explanation"] = "too short"
		pass, issues, score, _ := validateLengths(data)
		if !approx(score, 0.8) {
			t.Fatalf("score = %v, want 0.8", score)
		}
		if !pass {
			t.Fatal("0.8 should still pass the 0.6 bar")
		}
		if !containsIssue(issues, "Explanation too short") {
			t.Fatalf("issues = %v", issues)
		}
	})
}

func TestValidateQuality(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"questionText":  "Which planet is closest to the sun?",
			"options":       options("Mercury", "Venus", "Earth", "Mars"),
			"correctAnswer": "A",
			"explanation":   "Mercury orbits nearest to the sun.",
		}
	}

	t.Run("clean candidate scores full", func(t *testing.T) {
		pass, issues, score, _ := validateQuality(base())
		if !pass || !approx(score, 1.0) {
			t.Fatalf("pass = %v, score = %v, issues = %v", pass, score, issues)
		}
	})

	t.Run("missing question mark", func(t *testing.T) {
		data := base()
		data["questionText"] = "Name the planet closest to the sun"
		_, issues, score, _ := validateQuality(data)
		if !approx(score, 0.9) {
			t.Fatalf("score = %v, want 0.9", score)
		}
		if !containsIssue(issues, "Question should end with '?'") {
			t.Fatalf("issues = %v", issues)
		}
	})

	t.Run("all of the above", func(t *testing.T) {
		data := base()
		data["options"] = options("Mercury", "Venus", "Earth", "All of the above")
		_, issues, score, _ := validateQuality(data)
		if !approx(score, 0.85) {
			t.Fatalf("score = %v, want 0.85", score)
		}
		if !containsIssue(issues, "Avoid 'all/none of the above' options") {
			t.Fatalf("issues = %v", issues)
		}
	})

	t.Run("negative phrasing", func(t *testing.T) {
		data := base()
		data["questionText"] = "Which planet is not a gas giant?"
		_, issues, score, metrics := validateQuality(data)
		if !approx(score, 0.95) {
			t.Fatalf("score = %v, want 0.95", score)
		}
		if !containsIssue(issues, "negative phrasing") {
			t.Fatalf("issues = %v", issues)
		}
		if metrics["has_negative_phrasing"] != true {
			t.Fatal("expected has_negative_phrasing metric")
		}
	})

	t.Run("all options identical", func(t *testing.T) {
		data := base()
		data["options"] = options("x", "x", "x", "x")
		_, issues, score, metrics := validateQuality(data)
		if !containsIssue(issues, "Duplicate options detected") {
			t.Fatalf("issues = %v", issues)
		}
		if score > 0.7 {
			t.Fatalf("score = %v, want <= 0.7", score)
		}
		if metrics["has_duplicates"] != true {
			t.Fatal("expected has_duplicates metric")
		}
	})

	t.Run("unrelated explanation", func(t *testing.T) {
		data := base()
		data["explanation"] = "Totally different words here."
		_, issues, score, _ := validateQuality(data)
		if !approx(score, 0.9) {
			t.Fatalf("score = %v, want 0.9", score)
		}
		if !containsIssue(issues, "Explanation may not clearly relate") {
			t.Fatalf("issues = %v", issues)
		}
	})
}

func TestValidateSemantic_NoSourceTriviallyPasses(t *testing.T) {
	pass, issues, score, _ := validateSemantic(map[string]any{"questionText": "Anything?"}, "")
	if !pass || score != 1.0 || len(issues) != 0 {
		t.Fatalf("pass = %v, score = %v, issues = %v", pass, score, issues)
	}
}

func TestLengthVariance(t *testing.T) {
	if v := lengthVariance([]int{5, 5, 5, 5}); v != 0 {
		t.Fatalf("uniform lengths variance = %v, want 0", v)
	}
	if v := lengthVariance([]int{2, 4}); v != 1 {
		t.Fatalf("variance = %v, want 1", v)
	}
}

func approx(got, want float64) bool {
	d := got - want
	return d < 1e-9 && d > -1e-9
}

func containsIssue(issues []string, substr string) bool {
	for _, issue := range issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}
