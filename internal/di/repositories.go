// Package di provides dependency injection for repository implementations.
package di

import (
	"github.com/aristath/fundwatch/internal/clientdata"
	"github.com/aristath/fundwatch/internal/modules/holdings"
	"github.com/aristath/fundwatch/internal/modules/navhistory"
	"github.com/aristath/fundwatch/internal/modules/strategies"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories on the open databases
func InitializeRepositories(container *Container, log zerolog.Logger) {
	container.ClientDataRepo = clientdata.NewRepository(container.ClientDataDB.Conn())
	container.HoldingsRepo = holdings.NewRepository(container.PortfolioDB.Conn(), log)
	container.HistoryRepo = navhistory.NewRepository(container.PortfolioDB.Conn(), log)
	container.SignalRepo = strategies.NewRepository(container.PortfolioDB.Conn(), log)

	log.Info().Msg("Repositories initialized")
}
