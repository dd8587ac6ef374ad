package model

import "testing"

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input   string
		want    DifficultyLevel
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{"medium", DifficultyMedium, false},
		{"hard", DifficultyHard, false},
		{"EASY", "", true},
		{"extreme", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDifficulty(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseDifficulty(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDifficulty(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDifficulty(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCacheEnabled(t *testing.T) {
	yes, no := true, false

	if got := (&QuestionGenerationRequest{}).CacheEnabled(); !got {
		t.Fatal("absent useCache flag should default to enabled")
	}
	if got := (&QuestionGenerationRequest{UseCache: &yes}).CacheEnabled(); !got {
		t.Fatal("explicit true should enable caching")
	}
	if got := (&QuestionGenerationRequest{UseCache: &no}).CacheEnabled(); got {
		t.Fatal("explicit false should disable caching")
	}
}
