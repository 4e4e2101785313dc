package di

import (
	"fmt"

	"github.com/folioworks/folio/internal/config"
	"github.com/folioworks/folio/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens folio.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "folio",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize folio database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate folio database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Database initialized")
	return &Container{DB: db}, nil
}
