// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authstore/internal/auth"
)

// accountView is the printable form of an account. It never includes the
// password.
type accountView struct {
	Name             string     `yaml:"name"`
	RealName         string     `yaml:"real_name"`
	Email            string     `yaml:"email,omitempty"`
	UUID             string     `yaml:"uuid,omitempty"`
	RegistrationDate time.Time  `yaml:"registered"`
	RegistrationIP   string     `yaml:"registration_ip,omitempty"`
	LastIP           string     `yaml:"last_ip,omitempty"`
	LastLogin        *time.Time `yaml:"last_login,omitempty"`
	QuitLocation     struct {
		World string  `yaml:"world"`
		X     float64 `yaml:"x"`
		Y     float64 `yaml:"y"`
		Z     float64 `yaml:"z"`
		Yaw   float32 `yaml:"yaw"`
		Pitch float32 `yaml:"pitch"`
	} `yaml:"quit_location"`
	Logged  bool `yaml:"logged"`
	Session bool `yaml:"session"`
}

func newAccountView(a *auth.PlayerAuth) accountView {
	v := accountView{
		Name:             a.Name,
		RealName:         a.RealName,
		Email:            a.Email,
		RegistrationDate: a.RegistrationDate,
		RegistrationIP:   a.RegistrationIP,
		LastIP:           a.LastIP,
		LastLogin:        a.LastLogin,
		Logged:           a.Logged,
		Session:          a.Session,
	}
	if a.UUID != nil {
		v.UUID = a.UUID.String()
	}
	loc := a.QuitLocation
	v.QuitLocation.World, v.QuitLocation.X, v.QuitLocation.Y, v.QuitLocation.Z = loc.World, loc.X, loc.Y, loc.Z
	v.QuitLocation.Yaw, v.QuitLocation.Pitch = loc.Yaw, loc.Pitch
	return v
}

func errAccountNotFound(name string) error {
	return oops.Code("ACCOUNT_NOT_FOUND").With("name", name).Wrap(auth.ErrNotFound)
}

// errWriteFailed reports a write the data source rejected for an account
// known to exist. The cause is in the data source log.
func errWriteFailed(name, op string) error {
	return oops.Code("ACCOUNT_SAVE_FAILED").
		With("name", name).
		With("operation", op).
		Errorf("%s failed for %q; see the data source log", op, name)
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer player accounts",
	}
	cmd.AddCommand(
		newAccountRegisterCmd(a),
		newAccountShowCmd(a),
		newAccountCheckPasswordCmd(a),
		newAccountSetPasswordCmd(a),
		newAccountDeleteCmd(a),
		newAccountSetEmailCmd(a),
		newAccountRenameCmd(a),
	)
	return cmd
}

func newAccountRegisterCmd(a *app) *cobra.Command {
	var password, email, ip, playerUUID string

	cmd := &cobra.Command{
		Use:   "register NAME",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := a.deps.Hasher.Hash(password)
			if err != nil {
				return err
			}
			account, err := auth.NewPlayerAuth(args[0], hashed, ip)
			if err != nil {
				return err
			}
			account.Email = email
			if playerUUID != "" {
				id, err := uuid.Parse(playerUUID)
				if err != nil {
					return oops.Code("INVALID_UUID").With("uuid", playerUUID).Wrap(err)
				}
				account.UUID = &id
			}

			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if ds.IsAuthAvailable(cmd.Context(), account.Name) {
					return oops.Code("ACCOUNT_EXISTS").With("name", account.Name).Wrap(auth.ErrAccountExists)
				}
				if !ds.SaveAuth(cmd.Context(), account) {
					return oops.Code("ACCOUNT_SAVE_FAILED").With("name", account.Name).Errorf("account was not saved")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", account.RealName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&ip, "ip", "127.0.0.1", "registration IP address")
	cmd.Flags().StringVar(&playerUUID, "uuid", "", "player UUID")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show an account as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				account := ds.GetAuth(cmd.Context(), args[0])
				if account == nil {
					return errAccountNotFound(args[0])
				}
				return writeYAML(cmd.OutOrStdout(), newAccountView(account))
			})
		},
	}
}

func newAccountCheckPasswordCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "check-password NAME",
		Short: "Check a password against the stored hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				hashed := ds.GetPassword(cmd.Context(), args[0])
				if hashed == nil {
					return errAccountNotFound(args[0])
				}
				ok, err := a.deps.Hasher.Verify(password, *hashed)
				if err != nil {
					return err
				}
				if !ok {
					return oops.Code("PASSWORD_MISMATCH").With("name", args[0]).Errorf("password does not match")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "password ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password to check")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountSetPasswordCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "set-password NAME",
		Short: "Replace an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := a.deps.Hasher.Hash(password)
			if err != nil {
				return err
			}
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if !ds.IsAuthAvailable(cmd.Context(), args[0]) {
					return errAccountNotFound(args[0])
				}
				if !ds.UpdatePasswordFor(cmd.Context(), args[0], hashed) {
					return errWriteFailed(args[0], "set password")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "password updated")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if !ds.IsAuthAvailable(cmd.Context(), args[0]) {
					return errAccountNotFound(args[0])
				}
				if !ds.RemoveAuth(cmd.Context(), args[0]) {
					return errWriteFailed(args[0], "delete")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", auth.NormalizeName(args[0]))
				return nil
			})
		},
	}
}

func newAccountSetEmailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-email NAME EMAIL",
		Short: "Set an account's email address (empty clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if !ds.IsAuthAvailable(cmd.Context(), args[0]) {
					return errAccountNotFound(args[0])
				}
				if !ds.UpdateEmail(cmd.Context(), &auth.PlayerAuth{Name: args[0], Email: args[1]}) {
					return errWriteFailed(args[0], "set email")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "email updated")
				return nil
			})
		},
	}
}

func newAccountRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME REALNAME",
		Short: "Change the display casing of an account name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, realName := args[0], args[1]
			if auth.NormalizeName(realName) != auth.NormalizeName(name) {
				return oops.Code("INVALID_REAL_NAME").
					With("name", name).
					With("real_name", realName).
					Errorf("real name may only change the casing of %q", name)
			}
			return a.withDataSource(cmd.Context(), func(ds auth.DataSource) error {
				if !ds.IsAuthAvailable(cmd.Context(), name) {
					return errAccountNotFound(name)
				}
				if !ds.UpdateRealName(cmd.Context(), name, realName) {
					return errWriteFailed(name, "rename")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", auth.NormalizeName(name), realName)
				return nil
			})
		},
	}
}
