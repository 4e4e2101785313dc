package di

import (
	"fmt"

	"github.com/folioworks/folio/internal/clientdata"
	"github.com/folioworks/folio/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates the data access layer
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container database cannot be nil")
	}

	container.PortfolioRepo = portfolio.NewRepository(container.DB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.DB.Conn())

	log.Info().Msg("Repositories initialized")
	return nil
}
