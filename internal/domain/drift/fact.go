package drift

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Fact is a key/value memory extracted from a settled branch by the async
// extraction worker. Keys are snake_case and unique per branch.
type Fact struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_fact_branch_key,unique,priority:1" json:"branch_id"`

	Key        string  `gorm:"column:key;not null;index:idx_fact_branch_key,unique,priority:2" json:"key"`
	Value      string  `gorm:"column:value;type:text;not null" json:"value"`
	Confidence float64 `gorm:"column:confidence;not null;default:0" json:"confidence"`

	SourceMessageIDs datatypes.JSON `gorm:"column:source_message_ids;type:jsonb" json:"source_message_ids"` // []uuid

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Fact) TableName() string { return "fact" }
