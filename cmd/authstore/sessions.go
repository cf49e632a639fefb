// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/authstore/internal/auth"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and change login and session flags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show NAME",
		Short: "Show the logged-in and session flags of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				ctx := cmd.Context()
				if !ds.IsAuthAvailable(ctx, args[0]) {
					return errAccountNotFound(args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged: %t\nsession: %t\n",
					ds.IsLogged(ctx, args[0]), ds.HasSession(ctx, args[0]))
				return nil
			})
		},
	})

	var ip string
	login := &cobra.Command{
		Use:   "login NAME",
		Short: "Record a login: last IP, last login time, and the logged-in flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				ctx := cmd.Context()
				account := ds.GetAuth(ctx, args[0])
				if account == nil {
					return errAccountNotFound(args[0])
				}
				now := time.Now().UTC().Truncate(time.Millisecond)
				account.LastIP = ip
				account.LastLogin = &now
				if !ds.UpdateSession(ctx, account) {
					return errWriteFailed(account.Name, "login")
				}
				ds.SetLogged(ctx, account.Name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s logged in from %s\n", account.RealName, ip)
				return nil
			})
		},
	}
	login.Flags().StringVar(&ip, "ip", "127.0.0.1", "login IP address")
	cmd.AddCommand(login)

	cmd.AddCommand(flagCmd(a, "logout NAME", "Clear the logged-in flag", "logged out", auth.DataSource.SetUnlogged))
	cmd.AddCommand(flagCmd(a, "grant NAME", "Grant a resumable session", "session granted", auth.DataSource.GrantSession))
	cmd.AddCommand(flagCmd(a, "revoke NAME", "Revoke a resumable session", "session revoked", auth.DataSource.RevokeSession))

	cmd.AddCommand(&cobra.Command{
		Use:   "purge-logged",
		Short: "Clear the logged-in flag of every account",
		Long: `Clear the logged-in flag of every account. Run this after an unclean
shutdown so no account is left marked as online.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				ds.PurgeLogged(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "logged-in flags cleared")
				return nil
			})
		},
	})

	return cmd
}

// flagCmd builds a command that sets one flag on an existing account.
func flagCmd(a *app, use, short, done string, set func(auth.DataSource, context.Context, string)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if !ds.IsAuthAvailable(cmd.Context(), args[0]) {
					return errAccountNotFound(args[0])
				}
				set(ds, cmd.Context(), args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", auth.NormalizeName(args[0]), done)
				return nil
			})
		},
	}
}
