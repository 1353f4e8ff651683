package db

import (
	types "github.com/driftos/driftos-backend/internal/domain/drift"
)

func (s *PostgresService) AutoMigrateAll() error {
	return s.db.AutoMigrate(
		&types.Conversation{},
		&types.Branch{},
		&types.Message{},
		&types.Fact{},
	)
}
