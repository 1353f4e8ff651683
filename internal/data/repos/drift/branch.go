package drift

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type BranchWithCount struct {
	Branch       *types.Branch
	MessageCount int64
}

type BranchRepo interface {
	Create(dbc dbctx.Context, row *types.Branch) (*types.Branch, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error)
	// GetForUpdate takes a row-level lock; dbc.Tx must be set.
	GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error)
	// ListByConversation returns branches newest-updated first with their
	// message counts. Ties on updated_at break by id so ordering is stable.
	ListByConversation(dbc dbctx.Context, conversationID string, limit int) ([]BranchWithCount, error)
	UpdateCentroid(dbc dbctx.Context, id uuid.UUID, centroid []float32) error
}

type branchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBranchRepo(db *gorm.DB, log *logger.Logger) BranchRepo {
	return &branchRepo{db: db, log: log.With("repo", "BranchRepo")}
}

func (r *branchRepo) Create(dbc dbctx.Context, row *types.Branch) (*types.Branch, error) {
	if row == nil {
		return nil, fmt.Errorf("nil branch")
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

func (r *branchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing branch_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Branch
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *branchRepo) GetForUpdate(dbc dbctx.Context, id uuid.UUID) (*types.Branch, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("GetForUpdate requires a transaction")
	}
	var out types.Branch
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *branchRepo) ListByConversation(dbc dbctx.Context, conversationID string, limit int) ([]BranchWithCount, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("missing conversation_id")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}

	sql := fmt.Sprintf(`
		SELECT branch.*,
		       (SELECT COUNT(*) FROM message WHERE message.branch_id = branch.id) AS message_count
		FROM branch
		WHERE branch.conversation_id = ?
		ORDER BY branch.updated_at DESC, branch.id ASC
		LIMIT %d;
	`, limit)

	type row struct {
		types.Branch
		MessageCount int64 `gorm:"column:message_count"`
	}
	var rows []row
	if err := txx.WithContext(dbc.Ctx).Raw(sql, conversationID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]BranchWithCount, 0, len(rows))
	for i := range rows {
		b := rows[i].Branch
		out = append(out, BranchWithCount{Branch: &b, MessageCount: rows[i].MessageCount})
	}
	return out, nil
}

func (r *branchRepo) UpdateCentroid(dbc dbctx.Context, id uuid.UUID, centroid []float32) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing branch_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Branch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"centroid":   types.VectorJSON(centroid),
			"updated_at": time.Now().UTC(),
		}).Error
}
