package store

import (
	"context"
	"fmt"
	"log/slog"

	"dropline-api/config"
)

const defaultSQLitePath = "dropline.db"

// Open connects to the backend selected by cfg.DatabaseDriver. A database
// that cannot be reached is not fatal: Open logs the cause and returns
// Unavailable. Only an unknown driver is an error.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		log.Warn("store: using in-memory database, data is lost on exit")
		return NewMemory(), nil

	case config.DriverSQLite:
		path := cfg.DatabaseURL
		if path == "" {
			path = defaultSQLitePath
		}
		s, err = NewSQLite(path)

	case config.DriverMongo:
		if cfg.DatabaseURL == "" {
			log.Warn("store: DATABASE_URL not set, running without database")
			return Unavailable{}, nil
		}
		s, err = NewMongo(ctx, cfg.DatabaseURL, cfg.DatabaseName, cfg.DBTimeout)

	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Warn("store: DATABASE_URL not set, running without database")
			return Unavailable{}, nil
		}
		s, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.DBTimeout)

	default:
		return nil, fmt.Errorf("store: unknown database driver %q", cfg.DatabaseDriver)
	}

	if err != nil {
		log.Error("store: database not available", "driver", cfg.DatabaseDriver, "error", err)
		return Unavailable{Reason: err}, nil
	}

	log.Info("store: database connected", "driver", cfg.DatabaseDriver)
	return s, nil
}
