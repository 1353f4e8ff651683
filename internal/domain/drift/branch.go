package drift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DriftTypeSemantic   = "semantic"
	DriftTypeFunctional = "functional"
)

// Branch is one node of a conversation's topic tree. Centroid is the running
// role-weighted mean of the branch's message embeddings, stored as jsonb
// ([]float32). An empty centroid means no message has landed yet.
type Branch struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID string     `gorm:"type:text;not null;index" json:"conversation_id"`
	ParentBranchID *uuid.UUID `gorm:"type:uuid;column:parent_branch_id;index" json:"parent_branch_id,omitempty"`

	Summary   string         `gorm:"column:summary;type:text;not null" json:"summary"`
	Centroid  datatypes.JSON `gorm:"column:centroid;type:jsonb" json:"centroid"` // []float32
	DriftType string         `gorm:"column:drift_type;not null;default:'semantic'" json:"drift_type"`
	Depth     int            `gorm:"column:depth;not null;default:0" json:"depth"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Branch) TableName() string { return "branch" }
