// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/holomush/authstore/internal/auth"
	"github.com/holomush/authstore/internal/config"
	"github.com/holomush/authstore/internal/logging"
)

// app holds state shared by all subcommands.
type app struct {
	deps       Deps
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the root command for the authstore CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(Deps{})
}

func newRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	cmd := &cobra.Command{
		Use:   "authstore",
		Short: "Manage the player account store",
		Long: `authstore manages the PostgreSQL table that holds player accounts:
schema migrations, account administration, session flags, and statistics.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/authstore/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newSessionsCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

// setup loads configuration and the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Loader{Environ: a.deps.Environ}.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.Setup(logging.Options{
		Service: "authstore",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// withDataSource opens the data source, runs fn, and closes it.
func (a *app) withDataSource(ctx context.Context, fn func(ds auth.DataSource) error) error {
	return a.withDataSourceMetrics(ctx, nil, func(ds auth.DataSource, _ func(context.Context) error) error {
		return fn(ds)
	})
}

func (a *app) withDataSourceMetrics(ctx context.Context, reg prometheus.Registerer, fn func(ds auth.DataSource, ready func(context.Context) error) error) error {
	ds, ready, err := a.deps.OpenDataSource(ctx, a.cfg, a.logger, reg)
	if err != nil {
		return err
	}
	defer ds.Close()
	return fn(ds, ready)
}
