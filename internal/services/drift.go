package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	driftrepos "github.com/driftos/driftos-backend/internal/data/repos/drift"
	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/apierr"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

// BranchView is the read-model row for branch inspection endpoints. The
// centroid itself is withheld; only its dimension is reported.
type BranchView struct {
	ID                uuid.UUID  `json:"id"`
	ConversationID    string     `json:"conversation_id"`
	ParentBranchID    *uuid.UUID `json:"parent_branch_id,omitempty"`
	Summary           string     `json:"summary"`
	DriftType         string     `json:"drift_type"`
	Depth             int        `json:"depth"`
	MessageCount      int64      `json:"message_count"`
	CentroidDimension int        `json:"centroid_dimension"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type MessageView struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type FactView struct {
	ID         uuid.UUID `json:"id"`
	BranchID   uuid.UUID `json:"branch_id"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DriftService fronts the routing engine and the inspection read paths.
type DriftService interface {
	Route(ctx context.Context, in routing.Input) (*routing.Result, error)
	ListBranches(ctx context.Context, conversationID string) ([]BranchView, error)
	ListMessages(ctx context.Context, branchID uuid.UUID, limit int) ([]MessageView, error)
	ListFacts(ctx context.Context, branchID uuid.UUID) ([]FactView, error)
}

type driftService struct {
	log      *logger.Logger
	engine   *routing.Engine
	branches driftrepos.BranchRepo
	messages driftrepos.MessageRepo
	facts    driftrepos.FactRepo
}

func NewDriftService(
	log *logger.Logger,
	engine *routing.Engine,
	branches driftrepos.BranchRepo,
	messages driftrepos.MessageRepo,
	facts driftrepos.FactRepo,
) DriftService {
	return &driftService{
		log:      log.With("service", "DriftService"),
		engine:   engine,
		branches: branches,
		messages: messages,
		facts:    facts,
	}
}

func (s *driftService) Route(ctx context.Context, in routing.Input) (*routing.Result, error) {
	started := time.Now()
	res, err := s.engine.Route(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("message routed",
		"conversation_id", in.ConversationID,
		"action", res.Action,
		"drift_action", res.DriftAction,
		"branch_id", res.BranchID,
		"similarity", res.Similarity,
		"took", time.Since(started).String(),
	)
	return res, nil
}

func (s *driftService) ListBranches(ctx context.Context, conversationID string) ([]BranchView, error) {
	if conversationID == "" {
		return nil, apierr.InvalidInput("conversation id is required")
	}
	rows, err := s.branches.ListByConversation(dbctx.Context{Ctx: ctx}, conversationID, 100)
	if err != nil {
		return nil, err
	}
	out := make([]BranchView, 0, len(rows))
	for _, row := range rows {
		b := row.Branch
		out = append(out, BranchView{
			ID:                b.ID,
			ConversationID:    b.ConversationID,
			ParentBranchID:    b.ParentBranchID,
			Summary:           b.Summary,
			DriftType:         b.DriftType,
			Depth:             b.Depth,
			MessageCount:      row.MessageCount,
			CentroidDimension: len(types.VectorFromJSON(b.Centroid)),
			CreatedAt:         b.CreatedAt,
			UpdatedAt:         b.UpdatedAt,
		})
	}
	return out, nil
}

func (s *driftService) ListMessages(ctx context.Context, branchID uuid.UUID, limit int) ([]MessageView, error) {
	rows, err := s.messages.ListByBranch(dbctx.Context{Ctx: ctx}, branchID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MessageView, 0, len(rows))
	for _, m := range rows {
		out = append(out, MessageView{
			ID:        m.ID,
			BranchID:  m.BranchID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (s *driftService) ListFacts(ctx context.Context, branchID uuid.UUID) ([]FactView, error) {
	rows, err := s.facts.ListByBranch(dbctx.Context{Ctx: ctx}, branchID)
	if err != nil {
		return nil, err
	}
	out := make([]FactView, 0, len(rows))
	for _, f := range rows {
		out = append(out, FactView{
			ID:         f.ID,
			BranchID:   f.BranchID,
			Key:        f.Key,
			Value:      f.Value,
			Confidence: f.Confidence,
			UpdatedAt:  f.UpdatedAt,
		})
	}
	return out, nil
}
