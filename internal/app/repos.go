package app

import (
	"gorm.io/gorm"

	driftrepos "github.com/driftos/driftos-backend/internal/data/repos/drift"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

type Repos struct {
	Conversation driftrepos.ConversationRepo
	Branch       driftrepos.BranchRepo
	Message      driftrepos.MessageRepo
	Fact         driftrepos.FactRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Conversation: driftrepos.NewConversationRepo(db, log),
		Branch:       driftrepos.NewBranchRepo(db, log),
		Message:      driftrepos.NewMessageRepo(db, log),
		Fact:         driftrepos.NewFactRepo(db, log),
	}
}
