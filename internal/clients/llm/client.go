package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/driftos/driftos-backend/internal/pkg/httpx"
	"github.com/driftos/driftos-backend/internal/platform/envutil"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

// Client talks to an OpenAI-compatible chat-completions endpoint in JSON
// mode. It backs background fact extraction only; nothing on the routing
// path depends on it.
type Client interface {
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

// NewClient returns nil (not an error) when LLM_API_KEY is unset; callers
// treat a nil client as fact extraction being disabled.
func NewClient(log *logger.Logger) Client {
	apiKey := envutil.Str("LLM_API_KEY", "")
	if apiKey == "" {
		log.Info("llm client disabled: LLM_API_KEY not set")
		return nil
	}
	baseURL := strings.TrimRight(envutil.Str("LLM_BASE_URL", "https://api.openai.com/v1"), "/")
	model := envutil.Str("LLM_MODEL", "gpt-4o-mini")
	timeoutSec := envutil.Int("LLM_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("LLM_MAX_RETRIES", 2)

	return &client{
		log:        log.With("client", "LLMClient", "model", model),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			var parsed chatResponse
			if uErr := json.Unmarshal(raw, &parsed); uErr != nil {
				return nil, fmt.Errorf("llm decode error: %w", uErr)
			}
			if len(parsed.Choices) == 0 {
				return nil, fmt.Errorf("llm response contained no choices")
			}
			content := strings.TrimSpace(parsed.Choices[0].Message.Content)
			out := map[string]any{}
			if uErr := json.Unmarshal([]byte(content), &out); uErr != nil {
				return nil, fmt.Errorf("llm returned non-JSON content: %w", uErr)
			}
			return out, nil
		}

		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("llm request retrying",
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}

	return nil, lastErr
}
