package drift

import (
	"time"
)

// Conversation is the root container for a branch tree. The ID is an opaque
// client-supplied string, not a UUID, so external systems can reuse their own
// session identifiers.
type Conversation struct {
	ID string `gorm:"type:text;primaryKey" json:"id"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }
