// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package datasource implements auth.DataSource on top of the column handler.
package datasource

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authstore/internal/auth"
	"github.com/holomush/authstore/internal/auth/columns"
	"github.com/holomush/authstore/internal/threading"
	"github.com/holomush/authstore/pkg/errutil"
)

// Operation names used in logs and metric labels.
const (
	opIsAuthAvailable       = "is_auth_available"
	opGetPassword           = "get_password"
	opGetAuth               = "get_auth"
	opSaveAuth              = "save_auth"
	opRemoveAuth            = "remove_auth"
	opHasSession            = "has_session"
	opUpdateSession         = "update_session"
	opUpdatePassword        = "update_password"
	opUpdateQuitLoc         = "update_quit_loc"
	opGetAllAuthsByIP       = "get_all_auths_by_ip"
	opCountAuthsByEmail     = "count_auths_by_email"
	opUpdateEmail           = "update_email"
	opIsLogged              = "is_logged"
	opSetLogged             = "set_logged"
	opSetUnlogged           = "set_unlogged"
	opGrantSession          = "grant_session"
	opRevokeSession         = "revoke_session"
	opPurgeLogged           = "purge_logged"
	opGetAccountsRegistered = "get_accounts_registered"
	opUpdateRealName        = "update_real_name"
	opGetEmail              = "get_email"
)

// registrationFields are written by SaveAuth.
var registrationFields = []columns.Field{
	columns.Name, columns.RealName, columns.Password, columns.Salt,
	columns.Email, columns.RegistrationDate, columns.RegistrationIP, columns.UUID,
}

// SQLDataSource implements auth.DataSource using a column handler.
//
// Every operation checks the off-foreground precondition, delegates to the
// handler, and on failure logs the error and returns the operation's
// default. No error reaches the caller.
type SQLDataSource struct {
	handler *columns.Handler
	guard   *threading.Guard
	logger  *slog.Logger
	metrics *Metrics
	closer  func()
}

// Option configures a SQLDataSource.
type Option func(*SQLDataSource)

// WithLogger sets the logger used for degraded operations.
func WithLogger(logger *slog.Logger) Option {
	return func(d *SQLDataSource) { d.logger = logger }
}

// WithGuard sets the thread safety guard.
func WithGuard(guard *threading.Guard) Option {
	return func(d *SQLDataSource) { d.guard = guard }
}

// WithMetrics enables operation metrics.
func WithMetrics(m *Metrics) Option {
	return func(d *SQLDataSource) { d.metrics = m }
}

// WithCloser sets the function Close calls, typically the pool's Close.
func WithCloser(fn func()) Option {
	return func(d *SQLDataSource) { d.closer = fn }
}

// New creates a SQLDataSource. The handler must already be initialized.
func New(handler *columns.Handler, opts ...Option) (*SQLDataSource, error) {
	if handler == nil {
		return nil, oops.Code("DATASOURCE_INVALID").Errorf("column handler is required")
	}
	d := &SQLDataSource{handler: handler}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.guard == nil {
		d.guard = threading.NewGuard(threading.ModeWarn, d.logger)
	}
	return d, nil
}

// run executes fn for op. It returns false if the guard rejected the call
// or fn failed; in both cases the failure has been logged and counted.
func (d *SQLDataSource) run(ctx context.Context, op string, fn func() error, attrs ...any) bool {
	if err := d.guard.ShouldBeAsync(ctx, op); err != nil {
		d.metrics.degraded(op, reasonThreadSafety)
		errutil.LogErrorContext(ctx, d.logger, "data source call rejected", err, append(attrs, "operation", op)...)
		return false
	}

	start := time.Now()
	err := fn()
	d.metrics.observe(op, start)
	if err != nil {
		d.metrics.degraded(op, reasonError)
		errutil.LogErrorContext(ctx, d.logger, "data source operation failed", err, append(attrs, "operation", op)...)
		return false
	}
	return true
}

// IsAuthAvailable reports whether an account exists for name.
func (d *SQLDataSource) IsAuthAvailable(ctx context.Context, name string) bool {
	var exists bool
	d.run(ctx, opIsAuthAvailable, func() error {
		v, err := columns.Retrieve(ctx, d.handler, name, columns.Name)
		exists = v.Exists()
		return err
	}, "name", name)
	return exists
}

// GetPassword returns the stored password, or nil if the account does not
// exist or the lookup failed.
func (d *SQLDataSource) GetPassword(ctx context.Context, name string) *auth.HashedPassword {
	var pw *auth.HashedPassword
	d.run(ctx, opGetPassword, func() error {
		values, err := d.handler.RetrieveAll(ctx, name, columns.Password, columns.Salt)
		if err != nil {
			return err
		}
		if values.Exists() {
			pw = &auth.HashedPassword{
				Hash: columns.Get(values, columns.Password),
				Salt: columns.Get(values, columns.Salt),
			}
		}
		return nil
	}, "name", name)
	return pw
}

// GetAuth returns the full record, or nil if the account does not exist or
// the lookup failed.
func (d *SQLDataSource) GetAuth(ctx context.Context, name string) *auth.PlayerAuth {
	var a *auth.PlayerAuth
	d.run(ctx, opGetAuth, func() error {
		values, err := d.handler.RetrieveAll(ctx, name, columns.All...)
		if err != nil {
			return err
		}
		a = values.PlayerAuth()
		return nil
	}, "name", name)
	return a
}

// SaveAuth inserts a new account with its registration fields.
func (d *SQLDataSource) SaveAuth(ctx context.Context, a *auth.PlayerAuth) bool {
	return d.run(ctx, opSaveAuth, func() error {
		return d.handler.Insert(ctx, a, registrationFields...)
	}, "name", a.Name)
}

// RemoveAuth deletes an account and reports whether it existed.
func (d *SQLDataSource) RemoveAuth(ctx context.Context, name string) bool {
	var removed bool
	d.run(ctx, opRemoveAuth, func() error {
		var err error
		removed, err = d.handler.Delete(ctx, name)
		return err
	}, "name", name)
	return removed
}

// HasSession reports whether the session flag is set.
func (d *SQLDataSource) HasSession(ctx context.Context, name string) bool {
	return d.flag(ctx, opHasSession, name, columns.HasSession)
}

// UpdateSession stores the last IP, last login, and real name of a.
func (d *SQLDataSource) UpdateSession(ctx context.Context, a *auth.PlayerAuth) bool {
	return d.updateFrom(ctx, opUpdateSession, a, columns.LastIP, columns.LastLogin, columns.RealName)
}

// UpdatePassword stores a.Password for a.Name.
func (d *SQLDataSource) UpdatePassword(ctx context.Context, a *auth.PlayerAuth) bool {
	return d.UpdatePasswordFor(ctx, a.Name, a.Password)
}

// UpdatePasswordFor stores password for name.
func (d *SQLDataSource) UpdatePasswordFor(ctx context.Context, name string, password auth.HashedPassword) bool {
	return d.update(ctx, opUpdatePassword, name,
		columns.Set(columns.Password, password.Hash),
		columns.Set(columns.Salt, password.Salt))
}

// UpdateQuitLoc stores the quit location of a.
func (d *SQLDataSource) UpdateQuitLoc(ctx context.Context, a *auth.PlayerAuth) bool {
	return d.updateFrom(ctx, opUpdateQuitLoc, a,
		columns.LocationX, columns.LocationY, columns.LocationZ,
		columns.LocationWorld, columns.LocationYaw, columns.LocationPitch)
}

// GetAllAuthsByIP returns the names of accounts whose last IP is ip. An
// empty ip matches nothing; accounts that never logged in store NULL, not an
// address.
func (d *SQLDataSource) GetAllAuthsByIP(ctx context.Context, ip string) []string {
	names := []string{}
	d.run(ctx, opGetAllAuthsByIP, func() error {
		if ip == "" {
			return nil
		}
		found, err := columns.RetrieveWhere(ctx, d.handler, columns.Eq(columns.LastIP, ip), columns.Name)
		if err != nil {
			return err
		}
		names = found
		return nil
	}, "ip", ip)
	return names
}

// CountAuthsByEmail counts accounts with email, ignoring case.
func (d *SQLDataSource) CountAuthsByEmail(ctx context.Context, email string) int {
	return d.count(ctx, opCountAuthsByEmail, columns.EqIgnoreCase(columns.Email, email), "email", email)
}

// UpdateEmail stores a.Email.
func (d *SQLDataSource) UpdateEmail(ctx context.Context, a *auth.PlayerAuth) bool {
	return d.updateFrom(ctx, opUpdateEmail, a, columns.Email)
}

// IsLogged reports whether the logged-in flag is set.
func (d *SQLDataSource) IsLogged(ctx context.Context, name string) bool {
	return d.flag(ctx, opIsLogged, name, columns.IsLogged)
}

// SetLogged sets the logged-in flag.
func (d *SQLDataSource) SetLogged(ctx context.Context, name string) {
	d.update(ctx, opSetLogged, name, columns.Set(columns.IsLogged, 1))
}

// SetUnlogged clears the logged-in flag.
func (d *SQLDataSource) SetUnlogged(ctx context.Context, name string) {
	d.update(ctx, opSetUnlogged, name, columns.Set(columns.IsLogged, 0))
}

// GrantSession sets the session flag.
func (d *SQLDataSource) GrantSession(ctx context.Context, name string) {
	d.update(ctx, opGrantSession, name, columns.Set(columns.HasSession, 1))
}

// RevokeSession clears the session flag.
func (d *SQLDataSource) RevokeSession(ctx context.Context, name string) {
	d.update(ctx, opRevokeSession, name, columns.Set(columns.HasSession, 0))
}

// PurgeLogged clears the logged-in flag of every logged-in account.
func (d *SQLDataSource) PurgeLogged(ctx context.Context) {
	d.run(ctx, opPurgeLogged, func() error {
		n, err := d.handler.UpdateWhere(ctx, columns.Eq(columns.IsLogged, 1), columns.Set(columns.IsLogged, 0))
		if err != nil {
			return err
		}
		d.logger.DebugContext(ctx, "purged logged flags", "accounts", n)
		return nil
	})
}

// GetAccountsRegistered returns the number of accounts.
func (d *SQLDataSource) GetAccountsRegistered(ctx context.Context) int {
	return d.count(ctx, opGetAccountsRegistered, columns.AlwaysTrue())
}

// UpdateRealName stores the display name of name.
func (d *SQLDataSource) UpdateRealName(ctx context.Context, name, realName string) bool {
	return d.update(ctx, opUpdateRealName, name, columns.Set(columns.RealName, realName))
}

// GetEmail returns the stored email. The value is unknown if the lookup
// failed.
func (d *SQLDataSource) GetEmail(ctx context.Context, name string) auth.Value[string] {
	email := auth.Unknown[string]()
	d.run(ctx, opGetEmail, func() error {
		v, err := columns.Retrieve(ctx, d.handler, name, columns.Email)
		if err != nil {
			return err
		}
		email = v
		return nil
	}, "name", name)
	return email
}

// Close releases the underlying pool.
func (d *SQLDataSource) Close() {
	if d.closer != nil {
		d.closer()
	}
}

// flag reports whether a flag column of name is stored as 1.
func (d *SQLDataSource) flag(ctx context.Context, op, name string, c columns.Column[int]) bool {
	var set bool
	d.run(ctx, op, func() error {
		v, err := columns.Retrieve(ctx, d.handler, name, c)
		set = v.Exists() && v.Get() == 1
		return err
	}, "name", name)
	return set
}

// update applies assignments to name and reports whether a row changed.
func (d *SQLDataSource) update(ctx context.Context, op, name string, assignments ...columns.Assignment) bool {
	var changed bool
	d.run(ctx, op, func() error {
		var err error
		changed, err = d.handler.Update(ctx, name, assignments...)
		return err
	}, "name", name)
	return changed
}

func (d *SQLDataSource) updateFrom(ctx context.Context, op string, a *auth.PlayerAuth, fields ...columns.Field) bool {
	var changed bool
	d.run(ctx, op, func() error {
		var err error
		changed, err = d.handler.UpdateFrom(ctx, a, fields...)
		return err
	}, "name", a.Name)
	return changed
}

func (d *SQLDataSource) count(ctx context.Context, op string, pred columns.Predicate, attrs ...any) int {
	var n int
	d.run(ctx, op, func() error {
		var err error
		n, err = d.handler.Count(ctx, pred)
		return err
	}, attrs...)
	return n
}

// Compile-time interface check.
var _ auth.DataSource = (*SQLDataSource)(nil)
