package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{
		OllamaBaseURL: baseURL,
		OllamaModel:   "mistral",
		OllamaTimeout: 2 * time.Second,
	}
	return NewClient(cfg, zerolog.Nop())
}

// recordingSleeper captures the retry delays without actually sleeping.
func recordingSleeper(delays *[]time.Duration) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral", req["model"])
		assert.Equal(t, false, req["stream"])
		assert.Equal(t, "json", req["format"])

		opts, ok := req["options"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(500), opts["num_predict"])

		json.NewEncoder(w).Encode(map[string]any{
			"response":          `{"questions":[{"questionText":"What is tested here?"}]}`,
			"model":             "mistral:latest",
			"total_duration":    123456,
			"prompt_eval_count": 10,
			"eval_count":        42,
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Generate(context.Background(), "system", "user", GenerateParams{
		Temperature: 0.7, TopP: 0.9, TopK: 40, MaxTokens: 500,
	})
	require.NoError(t, err)

	questions, ok := result.Payload["questions"].([]any)
	require.True(t, ok)
	assert.Len(t, questions, 1)
	assert.Equal(t, "mistral:latest", result.Model)
	assert.Equal(t, 42, result.EvalCount)
	assert.Equal(t, 10, result.PromptEvalCount)
	assert.NotEmpty(t, result.RawResponse)
}

func TestGenerate_RetriesTransientWithSchedule(t *testing.T) {
	var delays []time.Duration
	// Unroutable endpoint: every attempt fails with a connection error.
	c := testClient("http://127.0.0.1:1").WithRetryPolicy(DefaultRetryPolicy(), recordingSleeper(&delays))

	_, err := c.Generate(context.Background(), "system", "user", GenerateParams{})
	require.Error(t, err)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
}

func TestGenerate_NoRetryOnParseError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"response": "this is not a json document"})
	}))
	defer srv.Close()

	var delays []time.Duration
	c := testClient(srv.URL).WithRetryPolicy(DefaultRetryPolicy(), recordingSleeper(&delays))

	_, err := c.Generate(context.Background(), "system", "user", GenerateParams{})
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, delays)
}

func TestGenerate_NoRetryOnHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model blew up", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Generate(context.Background(), "system", "user", GenerateParams{})
	require.Error(t, err)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_EmptyResponseFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": ""})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Generate(context.Background(), "system", "user", GenerateParams{})
	require.Error(t, err)

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "mistral:latest"},
				{"name": "llama3:8b"},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	status := c.CheckHealth(context.Background())

	assert.True(t, status.Healthy)
	assert.True(t, status.ModelAvailable)
	assert.Equal(t, "mistral", status.TargetModel)
	assert.Equal(t, []string{"mistral:latest", "llama3:8b"}, status.Models)
	assert.Empty(t, status.Error)
}

func TestCheckHealth_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "llama3:8b"}},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	status := c.CheckHealth(context.Background())

	assert.True(t, status.Healthy)
	assert.False(t, status.ModelAvailable)
}

func TestCheckHealth_Unreachable(t *testing.T) {
	c := testClient("http://127.0.0.1:1")
	status := c.CheckHealth(context.Background())

	assert.False(t, status.Healthy)
	assert.False(t, status.ModelAvailable)
	assert.NotEmpty(t, status.Error)
}

func TestDefaultRetryPolicy(t *testing.T) {
	assert.Equal(t,
		[]time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second},
		DefaultRetryPolicy().Delays(),
	)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", &TimeoutError{Timeout: time.Second, Attempt: 1}, true},
		{"connection", &ConnectionError{URL: "http://x", Reason: errors.New("refused")}, true},
		{"response", &ResponseError{Message: "HTTP 500"}, false},
		{"parse", &ParseError{Err: errors.New("bad json")}, false},
		{"plain", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
