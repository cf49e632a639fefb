// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/authstore/internal/auth"
	"github.com/holomush/authstore/internal/auth/columns"
	"github.com/holomush/authstore/internal/config"
	"github.com/holomush/authstore/internal/datasource"
	"github.com/holomush/authstore/internal/observability"
	"github.com/holomush/authstore/internal/store"
	"github.com/holomush/authstore/internal/threading"
)

// Deps contains injectable dependencies for the CLI.
// Nil fields use their default implementations.
type Deps struct {
	// Environ replaces the process environment when loading config.
	Environ map[string]string

	// OpenDataSource connects to the account store. reg may be nil.
	// Default: openDataSource
	OpenDataSource func(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (auth.DataSource, observability.ReadinessChecker, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// Hasher hashes and verifies passwords.
	// Default: auth.NewArgon2idHasher
	Hasher auth.Hasher

	// ObservabilityServerFactory creates the metrics server for serve.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Registry() *prometheus.Registry
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d Deps) withDefaults() Deps {
	if d.OpenDataSource == nil {
		d.OpenDataSource = openDataSource
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if d.Hasher == nil {
		d.Hasher = auth.NewArgon2idHasher()
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	return d
}

// openDataSource connects to PostgreSQL and builds the SQL data source.
// Closing the data source closes the pool.
func openDataSource(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (auth.DataSource, observability.ReadinessChecker, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	mode, err := cfg.ThreadSafetyMode()
	if err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
		Attempts: cfg.Database.ConnectAttempts,
		Backoff:  cfg.Database.ConnectBackoff,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	handler, err := columns.NewHandler(pool, cfg.ColumnsConfig())
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	opts := []datasource.Option{
		datasource.WithLogger(logger),
		datasource.WithGuard(threading.NewGuard(mode, logger)),
		datasource.WithCloser(pool.Close),
	}
	if reg != nil {
		opts = append(opts, datasource.WithMetrics(datasource.NewMetrics(reg)))
	}
	ds, err := datasource.New(handler, opts...)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return ds, pool.Ping, nil
}
