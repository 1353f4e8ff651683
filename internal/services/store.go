package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	driftrepos "github.com/driftos/driftos-backend/internal/data/repos/drift"
	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

// driftStore adapts the GORM repos to the routing engine's Store surface.
// Reads outside Commit run on the base connection; Commit wraps everything
// in a single transaction and hands the engine a tx-bound view.
type driftStore struct {
	db            *gorm.DB
	log           *logger.Logger
	conversations driftrepos.ConversationRepo
	branches      driftrepos.BranchRepo
	messages      driftrepos.MessageRepo
}

func NewDriftStore(
	db *gorm.DB,
	log *logger.Logger,
	conversations driftrepos.ConversationRepo,
	branches driftrepos.BranchRepo,
	messages driftrepos.MessageRepo,
) routing.Store {
	return &driftStore{
		db:            db,
		log:           log.With("service", "DriftStore"),
		conversations: conversations,
		branches:      branches,
		messages:      messages,
	}
}

func (s *driftStore) UpsertConversation(ctx context.Context, conversationID string) error {
	return s.conversations.Upsert(dbctx.Context{Ctx: ctx}, conversationID)
}

func (s *driftStore) ListBranches(ctx context.Context, conversationID string, limit int) ([]routing.BranchState, error) {
	rows, err := s.branches.ListByConversation(dbctx.Context{Ctx: ctx}, conversationID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]routing.BranchState, 0, len(rows))
	for _, row := range rows {
		out = append(out, routing.BranchState{
			ID:           row.Branch.ID,
			Summary:      row.Branch.Summary,
			MessageCount: row.MessageCount,
			Centroid:     types.VectorFromJSON(row.Branch.Centroid),
			ParentID:     row.Branch.ParentBranchID,
			DriftType:    row.Branch.DriftType,
			UpdatedAt:    row.Branch.UpdatedAt,
		})
	}
	return out, nil
}

func (s *driftStore) LastMessageContent(ctx context.Context, branchID uuid.UUID) (string, bool, error) {
	return s.messages.LastContent(dbctx.Context{Ctx: ctx}, branchID)
}

func (s *driftStore) Commit(ctx context.Context, fn func(tx routing.CommitStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&commitStore{parent: s, tx: tx})
	})
}

type commitStore struct {
	parent *driftStore
	tx     *gorm.DB
}

func (c *commitStore) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: c.tx}
}

func (c *commitStore) CreateBranch(ctx context.Context, b routing.NewBranch) (uuid.UUID, error) {
	depth := 0
	if b.ParentID != nil {
		parent, err := c.parent.branches.GetByID(c.dbc(ctx), *b.ParentID)
		if err != nil {
			return uuid.Nil, err
		}
		depth = parent.Depth + 1
	}
	row, err := c.parent.branches.Create(c.dbc(ctx), &types.Branch{
		ConversationID: b.ConversationID,
		ParentBranchID: b.ParentID,
		Summary:        b.Summary,
		Centroid:       types.VectorJSON(b.Centroid),
		DriftType:      b.DriftType,
		Depth:          depth,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (c *commitStore) InsertMessage(ctx context.Context, m routing.NewMessage) (uuid.UUID, error) {
	row, err := c.parent.messages.Create(c.dbc(ctx), &types.Message{
		ConversationID: m.ConversationID,
		BranchID:       m.BranchID,
		Role:           m.Role,
		Content:        m.Content,
		Embedding:      types.VectorJSON(m.Embedding),
	})
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

func (c *commitStore) LockBranch(ctx context.Context, branchID uuid.UUID) ([]float32, error) {
	row, err := c.parent.branches.GetForUpdate(c.dbc(ctx), branchID)
	if err != nil {
		return nil, err
	}
	return types.VectorFromJSON(row.Centroid), nil
}

func (c *commitStore) CountMessages(ctx context.Context, branchID uuid.UUID) (int64, error) {
	return c.parent.messages.CountByBranch(c.dbc(ctx), branchID)
}

func (c *commitStore) UpdateCentroid(ctx context.Context, branchID uuid.UUID, centroid []float32) error {
	return c.parent.branches.UpdateCentroid(c.dbc(ctx), branchID, centroid)
}

func (c *commitStore) TouchConversation(ctx context.Context, conversationID string) error {
	return c.parent.conversations.Touch(c.dbc(ctx), conversationID)
}
