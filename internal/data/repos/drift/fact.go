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

type FactRepo interface {
	// Upsert inserts or replaces the fact keyed by (branch_id, key).
	Upsert(dbc dbctx.Context, row *types.Fact) error
	ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Fact, error)
}

type factRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactRepo(db *gorm.DB, log *logger.Logger) FactRepo {
	return &factRepo{db: db, log: log.With("repo", "FactRepo")}
}

func (r *factRepo) Upsert(dbc dbctx.Context, row *types.Fact) error {
	if row == nil {
		return fmt.Errorf("nil fact")
	}
	if row.BranchID == uuid.Nil || row.Key == "" {
		return fmt.Errorf("missing branch_id or key")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "branch_id"}, {Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":              row.Value,
				"confidence":         row.Confidence,
				"source_message_ids": row.SourceMessageIDs,
				"updated_at":         time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *factRepo) ListByBranch(dbc dbctx.Context, branchID uuid.UUID) ([]*types.Fact, error) {
	if branchID == uuid.Nil {
		return nil, fmt.Errorf("missing branch_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Fact
	if err := txx.WithContext(dbc.Ctx).
		Where("branch_id = ?", branchID).
		Order("key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
