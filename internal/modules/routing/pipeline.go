package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

// Embedder is the slice of the embedding client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, text string, preprocess bool) ([]float32, error)
	AnalyzeDrift(ctx context.Context, req embedding.DriftAnalysisRequest) (*embedding.DriftAnalysis, error)
}

// Engine routes one message at a time through the drift pipeline:
// validate → load_branches → embed → classify → execute. Engines are
// stateless across requests; all routing state lives in the Store.
type Engine struct {
	log    *logger.Logger
	store  Store
	embed  Embedder
	facts  FactNotifier
	policy Policy
}

func NewEngine(log *logger.Logger, store Store, embed Embedder, facts FactNotifier, policy Policy) *Engine {
	return &Engine{
		log:    log.With("module", "RoutingEngine"),
		store:  store,
		embed:  embed,
		facts:  facts,
		policy: policy,
	}
}

type stage struct {
	name string
	fn   func(ctx context.Context, pc *pipelineContext) error
}

// Route runs the full pipeline under the policy's hard deadline. Every
// stage is critical: the first failure aborts the request. Rows committed
// before a deadline expiry persist; the response never exposes them.
func (e *Engine) Route(ctx context.Context, in Input) (*Result, error) {
	pc := &pipelineContext{
		input:  in,
		policy: e.policy.WithOverrides(in.Overrides),
	}

	ctx, cancel := context.WithTimeout(ctx, pc.policy.PipelineTimeout)
	defer cancel()

	stages := []stage{
		{name: "validate", fn: e.stageValidate},
		{name: "load_branches", fn: e.stageLoadBranches},
		{name: "embed", fn: e.stageEmbed},
		{name: "classify", fn: e.stageClassify},
		{name: "execute", fn: e.stageExecute},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, apierr.Timeout(fmt.Errorf("pipeline deadline before stage %s: %w", s.name, err))
		}
		if err := s.fn(ctx, pc); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apierr.Timeout(fmt.Errorf("pipeline deadline in stage %s: %w", s.name, err))
			}
			var ae *apierr.Error
			if errors.As(err, &ae) {
				return nil, ae
			}
			e.log.Error("pipeline stage failed",
				"stage", s.name,
				"conversation_id", in.ConversationID,
				"error", err.Error(),
			)
			return nil, apierr.Internal(fmt.Errorf("stage %s: %w", s.name, err))
		}
	}

	return pc.result, nil
}

func (e *Engine) stageValidate(ctx context.Context, pc *pipelineContext) error {
	in := &pc.input
	if strings.TrimSpace(in.ConversationID) == "" {
		return apierr.InvalidInput("conversationId is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return apierr.InvalidInput("content is required")
	}
	if in.Role != RoleUser && in.Role != RoleAssistant {
		return apierr.InvalidInput("role must be %q or %q", RoleUser, RoleAssistant)
	}
	return e.store.UpsertConversation(ctx, in.ConversationID)
}

func (e *Engine) stageLoadBranches(ctx context.Context, pc *pipelineContext) error {
	branches, err := e.store.ListBranches(ctx, pc.input.ConversationID, pc.policy.MaxBranches)
	if err != nil {
		return err
	}
	pc.branches = branches

	if len(branches) == 0 {
		if pc.input.CurrentBranchID != nil {
			return apierr.BranchNotFound("branch %s not found", *pc.input.CurrentBranchID)
		}
		pc.addReason("new_conversation")
		return nil
	}

	currentIdx := 0
	if pc.input.CurrentBranchID != nil {
		currentIdx = -1
		for i := range branches {
			if branches[i].ID == *pc.input.CurrentBranchID {
				currentIdx = i
				break
			}
		}
		if currentIdx < 0 {
			return apierr.BranchNotFound("branch %s not found", *pc.input.CurrentBranchID)
		}
	}
	pc.branches[currentIdx].IsCurrent = true
	pc.current = &pc.branches[currentIdx]

	content, ok, err := e.store.LastMessageContent(ctx, pc.current.ID)
	if err != nil {
		return err
	}
	if ok {
		pc.lastMessageContent = content
	}
	return nil
}

func (e *Engine) stageEmbed(ctx context.Context, pc *pipelineContext) error {
	vec, err := e.embed.Embed(ctx, pc.input.Content, pc.policy.PreprocessEmbedding)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return apierr.Unavailable(fmt.Errorf("embed failed: %w", err))
	}
	pc.embedding = vec
	return nil
}

func (e *Engine) stageClassify(ctx context.Context, pc *pipelineContext) error {
	return e.classify(ctx, pc)
}

func (e *Engine) stageExecute(ctx context.Context, pc *pipelineContext) error {
	return e.execute(ctx, pc)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
