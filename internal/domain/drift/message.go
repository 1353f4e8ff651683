package drift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// Message rows are append-only. Embedding may be empty on historical rows
// imported before the embedding service existed.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID string    `gorm:"type:text;not null;index" json:"conversation_id"`
	BranchID       uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`

	Role      string         `gorm:"column:role;not null;index" json:"role"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Embedding datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"embedding"` // []float32

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
