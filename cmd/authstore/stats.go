// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/authstore/internal/auth"
)

func newStatsCmd(a *app) *cobra.Command {
	var ip, email string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show account statistics",
		Long: `Show the number of registered accounts. With --ip, also list the
accounts last seen from that address; with --email, count the accounts using
that address, ignoring case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "registered: %d\n", ds.GetAccountsRegistered(ctx))
				if ip != "" {
					names := ds.GetAllAuthsByIP(ctx, ip)
					fmt.Fprintf(out, "accounts from %s: %d", ip, len(names))
					if len(names) > 0 {
						fmt.Fprintf(out, " (%s)", strings.Join(names, ", "))
					}
					fmt.Fprintln(out)
				}
				if email != "" {
					fmt.Fprintf(out, "accounts with %s: %d\n", email, ds.CountAuthsByEmail(ctx, email))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "list accounts last seen from this IP")
	cmd.Flags().StringVar(&email, "email", "", "count accounts with this email")
	return cmd
}
