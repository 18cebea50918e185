package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sohosai/hyperdashi-server/core/config"
	"github.com/sohosai/hyperdashi-server/core/database"
	"github.com/sohosai/hyperdashi-server/core/logger"
)

// runtime is what every subcommand needs before doing its own work.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

// bootstrap loads and validates configuration, builds the logger, connects
// to the database and, when migrate is set, applies pending migrations.
func bootstrap(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logg = logg.With(zap.String("dialect", db.Dialect().String()))
	logg.Info("Connected to database")

	if migrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if len(applied) > 0 {
			logg.Info("Migrations applied", zap.Strings("versions", applied))
		}
	}

	return &runtime{cfg: cfg, logger: logg, db: db}, nil
}

func (r *runtime) close() {
	_ = r.db.Close()
	_ = r.logger.Sync()
}
