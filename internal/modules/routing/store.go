package routing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BranchState is the routing view of a branch: enough to classify against
// without loading messages.
type BranchState struct {
	ID           uuid.UUID
	Summary      string
	MessageCount int64
	Centroid     []float32
	ParentID     *uuid.UUID
	DriftType    string
	UpdatedAt    time.Time
	IsCurrent    bool
}

// NewBranch is the creation payload handed to the store inside the commit
// transaction.
type NewBranch struct {
	ConversationID string
	ParentID       *uuid.UUID
	Summary        string
	Centroid       []float32
	DriftType      string
}

type NewMessage struct {
	ConversationID string
	BranchID       uuid.UUID
	Role           string
	Content        string
	Embedding      []float32
}

// Store is the persistence surface the pipeline reads from outside the
// commit transaction.
type Store interface {
	UpsertConversation(ctx context.Context, conversationID string) error
	// ListBranches returns up to limit branches ordered by updatedAt
	// descending, ties broken by id, with message counts.
	ListBranches(ctx context.Context, conversationID string, limit int) ([]BranchState, error)
	LastMessageContent(ctx context.Context, branchID uuid.UUID) (content string, ok bool, err error)
	// Commit runs fn inside a single transaction; fn's writes are atomic.
	Commit(ctx context.Context, fn func(tx CommitStore) error) error
}

// CommitStore is the write surface available only inside Store.Commit.
type CommitStore interface {
	CreateBranch(ctx context.Context, b NewBranch) (uuid.UUID, error)
	InsertMessage(ctx context.Context, m NewMessage) (uuid.UUID, error)
	// LockBranch takes a row-level lock and returns the branch's current
	// centroid. The lock holds until the transaction ends.
	LockBranch(ctx context.Context, branchID uuid.UUID) ([]float32, error)
	// CountMessages reads the branch's message count inside the transaction,
	// so it sees rows inserted earlier in the same transaction.
	CountMessages(ctx context.Context, branchID uuid.UUID) (int64, error)
	UpdateCentroid(ctx context.Context, branchID uuid.UUID, centroid []float32) error
	TouchConversation(ctx context.Context, conversationID string) error
}

// FactNotifier receives fire-and-forget fact-extraction requests for a
// branch the conversation just departed. Implementations must not block.
type FactNotifier interface {
	Enqueue(conversationID string, branchID uuid.UUID)
}
