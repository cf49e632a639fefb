// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authstore/internal/auth"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var metricsAddr string
	var purge bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve account metrics and health probes",
		Long: `Connect to the account store and serve Prometheus metrics and
health probes until interrupted. By default every logged-in flag is cleared
at startup, as no player can be online before the server starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var ready func(context.Context) error
			srv := a.deps.ObservabilityServerFactory(metricsAddr, func(ctx context.Context) error {
				return ready(ctx)
			}, a.logger)

			return a.withDataSourceMetrics(ctx, srv.Registry(), func(ds auth.DataSource, dsReady func(context.Context) error) error {
				ready = dsReady
				if ready == nil {
					ready = func(context.Context) error { return nil }
				}

				srv.Registry().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
					Name: "authstore_accounts_registered",
					Help: "Number of registered accounts",
				}, func() float64 {
					return float64(ds.GetAccountsRegistered(context.WithoutCancel(ctx)))
				}))

				if purge {
					ds.PurgeLogged(ctx)
					a.logger.InfoContext(ctx, "cleared logged-in flags")
				}

				errCh, err := srv.Start()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", srv.Addr())

				var serveErr error
				select {
				case <-ctx.Done():
				case err, ok := <-errCh:
					if ok && err != nil {
						serveErr = oops.Code("SERVE_FAILED").Wrap(err)
					}
				}

				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := srv.Stop(stopCtx); err != nil && serveErr == nil {
					serveErr = err
				}
				return serveErr
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9100", "listen address for metrics and health probes")
	cmd.Flags().BoolVar(&purge, "purge-logged", true, "clear every logged-in flag at startup")
	return cmd
}
