package app

import (
	"gorm.io/gorm"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
	"github.com/driftos/driftos-backend/internal/clients/llm"
	"github.com/driftos/driftos-backend/internal/modules/routing"
	"github.com/driftos/driftos-backend/internal/platform/logger"
	"github.com/driftos/driftos-backend/internal/services"
)

type Services struct {
	Embedding embedding.Client
	Drift     services.DriftService
	Facts     *services.FactService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	embedClient, err := embedding.NewClient(log)
	if err != nil {
		return Services{}, err
	}

	llmClient := llm.NewClient(log)

	factSvc := services.NewFactService(log, llmClient, repos.Message, repos.Fact)

	store := services.NewDriftStore(db, log, repos.Conversation, repos.Branch, repos.Message)
	engine := routing.NewEngine(log, store, embedClient, factSvc, cfg.Policy)

	driftSvc := services.NewDriftService(log, engine, repos.Branch, repos.Message, repos.Fact)

	return Services{
		Embedding: embedClient,
		Drift:     driftSvc,
		Facts:     factSvc,
	}, nil
}
