package embedding

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

// Client is the typed surface over the embedding sidecar. Embed is on the
// routing critical path and surfaces failures; AnalyzeDrift callers are
// expected to fall back to raw cosine when it errors.
type Client interface {
	Embed(ctx context.Context, text string, preprocess bool) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, preprocess bool) ([][]float32, error)
	Similarity(ctx context.Context, text1, text2 string, preprocess bool) (*SimilarityResult, error)
	AnalyzeDrift(ctx context.Context, req DriftAnalysisRequest) (*DriftAnalysis, error)
	EntityOverlap(ctx context.Context, current, previous string) (*EntityOverlap, error)
	AnalyzeMessage(ctx context.Context, text string) (*MessageAnalysis, error)
	Preprocess(ctx context.Context, texts []string) ([]string, error)
	Health(ctx context.Context) (*HealthStatus, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(envutil.Str("EMBEDDING_BASE_URL", "http://localhost:8100"), "/")
	timeoutSec := envutil.Int("EMBEDDING_TIMEOUT_SECONDS", 30)
	maxRetries := envutil.Int("EMBEDDING_MAX_RETRIES", 2)

	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
	}

	return &client{
		log:        log.With("client", "EmbeddingClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second, Transport: transport},
		maxRetries: maxRetries,
	}, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("embedding http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 500 * time.Millisecond

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("embedding decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 5*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("embedding request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func (c *client) Embed(ctx context.Context, text string, preprocess bool) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text}, preprocess)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return vecs[0], nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string, preprocess bool) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(texts))
	for i := range texts {
		s := strings.TrimSpace(texts[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embedResponse
	if err := c.do(ctx, "POST", "/embed", embedRequest{Text: clean, Preprocess: preprocess}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(clean) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(clean), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

func (c *client) Similarity(ctx context.Context, text1, text2 string, preprocess bool) (*SimilarityResult, error) {
	var resp SimilarityResult
	if err := c.do(ctx, "POST", "/similarity", similarityRequest{Text1: text1, Text2: text2, Preprocess: preprocess}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) AnalyzeDrift(ctx context.Context, req DriftAnalysisRequest) (*DriftAnalysis, error) {
	var resp DriftAnalysis
	if err := c.do(ctx, "POST", "/analyze-drift", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) EntityOverlap(ctx context.Context, current, previous string) (*EntityOverlap, error) {
	var resp EntityOverlap
	if err := c.do(ctx, "POST", "/entity-overlap", entityOverlapRequest{Current: current, Previous: previous}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) AnalyzeMessage(ctx context.Context, text string) (*MessageAnalysis, error) {
	var resp MessageAnalysis
	if err := c.do(ctx, "POST", "/analyze-message", analyzeMessageRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) Preprocess(ctx context.Context, texts []string) ([]string, error) {
	var resp preprocessResponse
	if err := c.do(ctx, "POST", "/preprocess", preprocessRequest{Text: texts}, &resp); err != nil {
		return nil, err
	}
	return resp.Preprocessed, nil
}

func (c *client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.do(ctx, "GET", "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
