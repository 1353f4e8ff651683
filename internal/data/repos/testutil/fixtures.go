package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/driftos/driftos-backend/internal/domain/drift"
)

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{ID: id}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedBranch(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID, summary string, centroid []float32) *types.Branch {
	tb.Helper()
	b := &types.Branch{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Summary:        summary,
		Centroid:       types.VectorJSON(centroid),
		DriftType:      types.DriftTypeSemantic,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed branch: %v", err)
	}
	return b
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID string, branchID uuid.UUID, role, content string, embedding []float32) *types.Message {
	tb.Helper()
	m := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		BranchID:       branchID,
		Role:           role,
		Content:        content,
		Embedding:      types.VectorJSON(embedding),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}
