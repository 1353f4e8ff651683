package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/driftos/driftos-backend/internal/platform/logger"
)

func testClient(t *testing.T, baseURL string) Client {
	t.Helper()
	t.Setenv("EMBEDDING_BASE_URL", baseURL)
	t.Setenv("EMBEDDING_MAX_RETRIES", "1")
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("init client: %v", err)
	}
	return c
}

func TestEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s, want /embed", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Text) != 2 {
			t.Errorf("sent %d texts, want 2", len(req.Text))
		}
		_ = json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0}, {0, 1}},
			Dimension:  2,
			Model:      "paraphrase-MiniLM-L6-v2",
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b"}, false)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("unexpected vectors: %v", vecs)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.EmbedBatch(context.Background(), []string{"a", "b"}, false); err == nil {
		t.Error("expected count-mismatch error")
	}
}

func TestEmbedRetriesOn503(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	vec, err := c.Embed(context.Background(), "hello", false)
	if err != nil {
		t.Fatalf("Embed after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if len(vec) != 2 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbedNoRetryOn400(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Embed(context.Background(), "hello", false); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestAnalyzeDrift(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-drift" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req DriftAnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Current == "" || len(req.CurrentEmbedding) == 0 {
			t.Error("request missing current message or embedding")
		}
		_ = json.NewEncoder(w).Encode(DriftAnalysis{
			RawSimilarity:     0.3,
			BoostedSimilarity: 0.51,
			BoostMultiplier:   1.7,
			BoostsApplied:     []string{"anaphoric_reference"},
			Analysis: MessageSignals{
				CurrentHasAnaphoricRef: true,
				EntityOverlap:          EntityOverlap{HasOverlap: true, OverlapScore: 0.4, SharedEntities: []string{"paris"}},
			},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	res, err := c.AnalyzeDrift(context.Background(), DriftAnalysisRequest{
		Current:          "what about there?",
		Previous:         "hotels in Paris",
		CurrentEmbedding: []float32{1, 0},
		BranchCentroid:   []float32{0.9, 0.1},
	})
	if err != nil {
		t.Fatalf("AnalyzeDrift: %v", err)
	}
	if res.BoostedSimilarity != 0.51 || !res.Analysis.CurrentHasAnaphoricRef {
		t.Errorf("unexpected analysis: %+v", res)
	}
	if len(res.Analysis.EntityOverlap.SharedEntities) != 1 {
		t.Errorf("entity overlap: %+v", res.Analysis.EntityOverlap)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", Model: "paraphrase-MiniLM-L6-v2", Dimension: 384})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	hs, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if hs.Status != "healthy" || hs.Dimension != 384 {
		t.Errorf("unexpected health: %+v", hs)
	}
}
