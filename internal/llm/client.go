package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen/internal/config"
)

// GenerateParams are the sampling parameters forwarded to the endpoint.
type GenerateParams struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// GenerateResult is one successful generation. Payload holds the model's text
// output re-parsed as a JSON document (the endpoint is asked for JSON-format
// output, so the text field itself is a JSON payload).
type GenerateResult struct {
	Payload         map[string]any
	RawResponse     string
	Model           string
	TotalDurationNs int64
	PromptEvalCount int
	EvalCount       int
	ElapsedMs       int64
}

// HealthStatus reports endpoint reachability and model availability.
type HealthStatus struct {
	Healthy        bool     `json:"healthy"`
	Models         []string `json:"models"`
	TargetModel    string   `json:"target_model"`
	ModelAvailable bool     `json:"model_available"`
	Error          string   `json:"error,omitempty"`
}

// generateRequest is the wire shape of the Ollama /api/generate call.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client talks to an Ollama-protocol generation endpoint with timeout
// enforcement and table-driven retry on transient failures. Safe for
// concurrent use; the underlying http.Client pools connections.
type Client struct {
	baseURL string
	model   string
	timeout time.Duration
	httpc   *http.Client
	retry   RetryPolicy
	sleep   Sleeper
	log     zerolog.Logger
}

// NewClient creates a Client from configuration with the default retry policy.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.OllamaBaseURL, "/"),
		model:   cfg.OllamaModel,
		timeout: cfg.OllamaTimeout,
		httpc: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
			},
		},
		retry: DefaultRetryPolicy(),
		sleep: defaultSleeper,
		log:   log.With().Str("component", "llm_client").Logger(),
	}
}

// WithRetryPolicy replaces the retry schedule. Used by tests to substitute a
// zero-delay policy.
func (c *Client) WithRetryPolicy(p RetryPolicy, s Sleeper) *Client {
	c.retry = p
	if s != nil {
		c.sleep = s
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Generate sends a (system prompt, user prompt) pair to the generation
// endpoint requesting JSON output, retrying transient failures per the
// configured schedule.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, params GenerateParams) (*GenerateResult, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: userPrompt,
		System: systemPrompt,
		Stream: false,
		Format: "json",
		Options: generateOptions{
			Temperature: params.Temperature,
			TopP:        params.TopP,
			TopK:        params.TopK,
			NumPredict:  params.MaxTokens,
		},
	}

	delays := append(c.retry.Delays(), 0)
	var lastErr error

	for attempt := 1; attempt <= len(delays); attempt++ {
		result, err := c.execute(ctx, &req, attempt)
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) {
			return nil, err
		}

		lastErr = err
		if attempt < len(delays) {
			delay := delays[attempt-1]
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("retry_in", delay).
				Msg("LLM request failed, retrying")
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, lastErr
			}
		} else {
			c.log.Error().
				Err(err).
				Int("attempts", attempt).
				Msg("LLM request failed after all retries")
		}
	}

	return nil, lastErr
}

// execute performs a single request attempt, classifying failures into the
// client's error taxonomy.
func (c *Client) execute(ctx context.Context, req *generateRequest, attempt int) (*GenerateResult, error) {
	start := time.Now()
	url := c.baseURL + "/api/generate"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Timeout: c.timeout, Attempt: attempt}
		}
		return nil, &ConnectionError{URL: url, Reason: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{URL: url, Reason: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ResponseError{
			Message: fmt.Sprintf("HTTP %d from llm service", resp.StatusCode),
			Snippet: snippet(string(raw), 500),
		}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ParseError{Snippet: snippet(string(raw), 200), Err: err}
	}

	if decoded.Response == "" {
		return nil, &ResponseError{
			Message: "empty response from llm",
			Snippet: snippet(string(raw), 500),
		}
	}

	// Second decode: the model was asked to emit a JSON document as its text
	// output.
	var payload map[string]any
	if err := json.Unmarshal([]byte(decoded.Response), &payload); err != nil {
		return nil, &ParseError{Snippet: snippet(decoded.Response, 200), Err: err}
	}

	elapsed := time.Since(start)
	c.log.Debug().
		Str("model", decoded.Model).
		Int("attempt", attempt).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Int("tokens", decoded.EvalCount).
		Msg("LLM request completed")

	return &GenerateResult{
		Payload:         payload,
		RawResponse:     decoded.Response,
		Model:           decoded.Model,
		TotalDurationNs: decoded.TotalDuration,
		PromptEvalCount: decoded.PromptEvalCount,
		EvalCount:       decoded.EvalCount,
		ElapsedMs:       elapsed.Milliseconds(),
	}, nil
}

// CheckHealth lists available models and reports whether the configured model
// is present. Single attempt, no retry.
func (c *Client) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{TargetModel: c.model, Models: []string{}}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		status.Error = fmt.Sprintf("connection failed: %v", err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("HTTP %d from llm service", resp.StatusCode)
		return status
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		status.Error = err.Error()
		return status
	}

	status.Healthy = true
	for _, m := range tags.Models {
		status.Models = append(status.Models, m.Name)
		if strings.Contains(m.Name, c.model) {
			status.ModelAvailable = true
		}
	}

	return status
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func snippet(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
