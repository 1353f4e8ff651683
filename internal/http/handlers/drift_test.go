package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/http/response"
	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
	"github.com/driftos/driftos-backend/internal/services"
)

type stubDriftService struct {
	lastInput routing.Input
	result    *routing.Result
	err       error
}

func (s *stubDriftService) Route(ctx context.Context, in routing.Input) (*routing.Result, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubDriftService) ListBranches(ctx context.Context, conversationID string) ([]services.BranchView, error) {
	return nil, nil
}

func (s *stubDriftService) ListMessages(ctx context.Context, branchID uuid.UUID, limit int) ([]services.MessageView, error) {
	return nil, nil
}

func (s *stubDriftService) ListFacts(ctx context.Context, branchID uuid.UUID) ([]services.FactView, error) {
	return nil, nil
}

func testRouter(t *testing.T, svc services.DriftService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	h := NewDriftHandler(log, svc)
	r := gin.New()
	r.POST("/messages", h.RouteMessage)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRouteMessageSuccess(t *testing.T) {
	svc := &stubDriftService{result: &routing.Result{
		Action:      routing.ActionStay,
		DriftAction: routing.DriftActionStay,
		BranchID:    uuid.NewString(),
		MessageID:   uuid.NewString(),
		Similarity:  0.8,
		Confidence:  0.8,
	}}
	r := testRouter(t, svc)

	w := postJSON(t, r, `{"conversationId":"c1","content":"hello there"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Error != nil {
		t.Errorf("envelope: %+v", env)
	}
	if svc.lastInput.Role != routing.RoleUser {
		t.Errorf("role default = %q, want user", svc.lastInput.Role)
	}
	if !svc.lastInput.ExtractFacts {
		t.Error("extractFacts must default to true")
	}
}

func TestRouteMessageThresholdOverrides(t *testing.T) {
	svc := &stubDriftService{result: &routing.Result{Action: routing.ActionStay}}
	r := testRouter(t, svc)

	w := postJSON(t, r, `{"conversationId":"c1","content":"hi","stayThreshold":0.6,"extractFacts":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.lastInput.Overrides == nil || svc.lastInput.Overrides.StayThreshold == nil ||
		*svc.lastInput.Overrides.StayThreshold != 0.6 {
		t.Errorf("overrides not forwarded: %+v", svc.lastInput.Overrides)
	}
	if svc.lastInput.ExtractFacts {
		t.Error("extractFacts=false not forwarded")
	}
}

func TestRouteMessageBadUUID(t *testing.T) {
	svc := &stubDriftService{}
	r := testRouter(t, svc)

	w := postJSON(t, r, `{"conversationId":"c1","content":"hi","currentBranchId":"not-a-uuid"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var env response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if env.Success || env.Error == nil {
		t.Errorf("expected failure envelope, got %+v", env)
	}
}

func TestRouteMessageServiceError(t *testing.T) {
	svc := &stubDriftService{err: apierr.InvalidInput("content is required")}
	r := testRouter(t, svc)

	w := postJSON(t, r, `{"conversationId":"c1","content":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var env response.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "invalid_input" {
		t.Errorf("envelope: %+v, error: %+v", env, env.Error)
	}
}

func TestRouteMessageMalformedBody(t *testing.T) {
	svc := &stubDriftService{}
	r := testRouter(t, svc)

	w := postJSON(t, r, `{"conversationId": }`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
