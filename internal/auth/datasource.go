// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "context"

// valueState distinguishes a missing row from a lookup that failed.
type valueState uint8

const (
	stateMissing valueState = iota
	stateFound
	stateUnknown
)

// Value is the result of reading a single field of one account.
type Value[T any] struct {
	value T
	state valueState
}

// Found returns a Value for an existing row.
func Found[T any](v T) Value[T] {
	return Value[T]{value: v, state: stateFound}
}

// Missing returns a Value for a row that does not exist.
func Missing[T any]() Value[T] {
	return Value[T]{state: stateMissing}
}

// Unknown returns a Value for a lookup that could not be completed.
func Unknown[T any]() Value[T] {
	return Value[T]{state: stateUnknown}
}

// Exists reports whether the row was found.
func (v Value[T]) Exists() bool { return v.state == stateFound }

// IsUnknown reports whether the lookup failed.
func (v Value[T]) IsUnknown() bool { return v.state == stateUnknown }

// Get returns the stored value, or the zero value if the row was not found.
func (v Value[T]) Get() T { return v.value }

// DataSource reads and writes player accounts.
//
// Every method must be called off the foreground loop. Implementations log
// failures and return the documented default instead of an error.
type DataSource interface {
	// IsAuthAvailable reports whether an account exists for name.
	IsAuthAvailable(ctx context.Context, name string) bool

	// GetPassword returns the stored hash and salt, or nil if there is none.
	GetPassword(ctx context.Context, name string) *HashedPassword

	// GetAuth returns the full account record, or nil if there is none.
	GetAuth(ctx context.Context, name string) *PlayerAuth

	// SaveAuth inserts a new account with its registration fields.
	SaveAuth(ctx context.Context, auth *PlayerAuth) bool

	// RemoveAuth deletes an account.
	RemoveAuth(ctx context.Context, name string) bool

	// HasSession reports whether the account has a resumable session.
	HasSession(ctx context.Context, name string) bool

	// UpdateSession stores the last IP, last login, and real name.
	UpdateSession(ctx context.Context, auth *PlayerAuth) bool

	// UpdatePassword stores auth.Password for auth.Name.
	UpdatePassword(ctx context.Context, auth *PlayerAuth) bool

	// UpdatePasswordFor stores password for name.
	UpdatePasswordFor(ctx context.Context, name string, password HashedPassword) bool

	// UpdateQuitLoc stores the quit location.
	UpdateQuitLoc(ctx context.Context, auth *PlayerAuth) bool

	// GetAllAuthsByIP returns the names of accounts last seen from ip. An
	// empty ip yields an empty list.
	GetAllAuthsByIP(ctx context.Context, ip string) []string

	// CountAuthsByEmail counts accounts with email, ignoring case.
	CountAuthsByEmail(ctx context.Context, email string) int

	// UpdateEmail stores auth.Email.
	UpdateEmail(ctx context.Context, auth *PlayerAuth) bool

	// IsLogged reports whether the account is flagged as logged in.
	IsLogged(ctx context.Context, name string) bool

	// SetLogged flags the account as logged in.
	SetLogged(ctx context.Context, name string)

	// SetUnlogged clears the logged-in flag.
	SetUnlogged(ctx context.Context, name string)

	// GrantSession flags the account as having a resumable session.
	GrantSession(ctx context.Context, name string)

	// RevokeSession clears the session flag.
	RevokeSession(ctx context.Context, name string)

	// PurgeLogged clears the logged-in flag on every account.
	PurgeLogged(ctx context.Context)

	// GetAccountsRegistered returns the total number of accounts.
	GetAccountsRegistered(ctx context.Context) int

	// UpdateRealName stores a new display name for name.
	UpdateRealName(ctx context.Context, name, realName string) bool

	// GetEmail returns the stored email.
	GetEmail(ctx context.Context, name string) Value[string]

	// Close releases the underlying resources.
	Close()
}
