package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/riskdesk/internal/config"
	"github.com/aristath/riskdesk/internal/database"
)

// InitializeDatabases opens the three databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	entries := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// positions and transactions get maximum durability
		{database.NamePortfolio, database.ProfileLedger, &container.PortfolioDB},
		{database.NameHistory, database.ProfileStandard, &container.HistoryDB},
		{database.NameCache, database.ProfileCache, &container.CacheDB},
	}

	for _, entry := range entries {
		db, err := database.New(database.Config{
			Path:    cfg.DatabasePath(entry.name),
			Profile: entry.profile,
			Name:    entry.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", entry.name, err)
		}
		*entry.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", entry.name, err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}
