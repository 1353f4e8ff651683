package drift

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, row *types.Message) (*types.Message, error)
	// LastContent returns the content of the chronologically latest message in
	// the branch; ok=false when the branch is empty.
	LastContent(dbc dbctx.Context, branchID uuid.UUID) (content string, ok bool, err error)
	CountByBranch(dbc dbctx.Context, branchID uuid.UUID) (int64, error)
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID, limit int) ([]*types.Message, error)
	ListRecent(dbc dbctx.Context, branchID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, row *types.Message) (*types.Message, error) {
	if row == nil {
		return nil, fmt.Errorf("nil message")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *messageRepo) LastContent(dbc dbctx.Context, branchID uuid.UUID) (string, bool, error) {
	if branchID == uuid.Nil {
		return "", false, fmt.Errorf("missing branch_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Message
	err := txx.WithContext(dbc.Ctx).
		Where("branch_id = ?", branchID).
		Order("created_at DESC, id DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out.Content, true, nil
}

func (r *messageRepo) CountByBranch(dbc dbctx.Context, branchID uuid.UUID) (int64, error) {
	if branchID == uuid.Nil {
		return 0, fmt.Errorf("missing branch_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("branch_id = ?", branchID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *messageRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID, limit int) ([]*types.Message, error) {
	if branchID == uuid.Nil {
		return nil, fmt.Errorf("missing branch_id")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("branch_id = ?", branchID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, branchID uuid.UUID, limit int) ([]*types.Message, error) {
	if branchID == uuid.Nil {
		return nil, fmt.Errorf("missing branch_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Where("branch_id = ?", branchID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	// Normalize to ASC for prompt building.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
