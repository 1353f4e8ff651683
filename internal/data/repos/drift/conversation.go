package drift

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type ConversationRepo interface {
	// Upsert creates the conversation if missing. A unique-key violation from
	// a concurrent create is treated as success.
	Upsert(dbc dbctx.Context, id string) error
	Get(dbc dbctx.Context, id string) (*types.Conversation, error)
	Touch(dbc dbctx.Context, id string) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Upsert(dbc dbctx.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var existing types.Conversation
	err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	conv := &types.Conversation{ID: id}
	if err := txx.WithContext(dbc.Ctx).Create(conv).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (r *conversationRepo) Get(dbc dbctx.Context, id string) (*types.Conversation, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Conversation
	if err := txx.WithContext(dbc.Ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) Touch(dbc dbctx.Context, id string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// isUniqueViolation detects SQLSTATE 23505 from pgx as well as GORM's
// dialect-independent duplicate key error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
