// Package storage selects the DataSource implementation at startup.
package storage

import (
	"context"
	"fmt"

	"github.com/robroyhobbs/burgerprice/internal/contracts"
	"github.com/robroyhobbs/burgerprice/internal/index"
	"github.com/robroyhobbs/burgerprice/internal/storage/memory"
	"github.com/robroyhobbs/burgerprice/internal/storage/postgres"
	"github.com/robroyhobbs/burgerprice/pkg/config"
	"github.com/robroyhobbs/burgerprice/pkg/database"
	"github.com/robroyhobbs/burgerprice/pkg/logger"
)

// Opened is a DataSource together with its owning resources.
type Opened struct {
	contracts.DataSource

	// DB is set only for the postgres source.
	DB *database.DB
}

// Close releases the underlying pool, if any.
func (o *Opened) Close() {
	if o.DB != nil {
		o.DB.Close()
	}
}

// Open builds the DataSource named by cfg.Collection.DataSource.
// ⭐ SSOT: the only place that decides between postgres and fixture data
func Open(ctx context.Context, cfg *config.Config, calc *index.Calculator, log *logger.Logger) (*Opened, error) {
	switch cfg.Collection.DataSource {
	case config.DataSourcePostgres:
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w: %w", contracts.ErrStore, err)
		}
		log.WithField("source", config.DataSourcePostgres).Info("Data source opened")
		return &Opened{DataSource: postgres.New(db.Pool), DB: db}, nil

	case config.DataSourceFixture:
		store, err := memory.NewFromFixtures(calc)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		log.WithField("source", config.DataSourceFixture).Info("Data source opened")
		return &Opened{DataSource: store}, nil

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Collection.DataSource)
	}
}
