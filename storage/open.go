// Package storage selects the store.Store implementation named by the
// configuration.
package storage

import (
	"fmt"

	"go.uber.org/zap"

	"teamup/config"
	"teamup/database"
	"teamup/memstore"
	"teamup/store"
)

// Open returns the configured store and a function that releases it. The
// "none" driver returns a nil store, which puts the services in degraded
// mode.
func Open(cfg *config.Config, log *zap.Logger) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.Connect(cfg.Database, log)
		if err != nil {
			return nil, noop, err
		}
		if err := database.RunMigrations(db, log); err != nil {
			_ = database.Close(db)
			return nil, noop, err
		}
		return database.NewStore(db), func() error { return database.Close(db) }, nil
	case config.DriverMemory:
		st, err := memstore.New()
		if err != nil {
			return nil, noop, err
		}
		log.Warn("using in-memory store; data is lost on restart")
		return st, noop, nil
	case config.DriverNone:
		log.Warn("no store configured; running in degraded mode")
		return nil, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
