// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth provides the account model of the authentication service.
//
// # Domain Types
//
// PlayerAuth is the persisted record of a registered player. New records
// should be created with NewPlayerAuth, which validates the name and derives
// the lower-cased account key. Records loaded from storage are populated
// field by field by the storage layer.
//
// HashedPassword is the hash and salt pair produced by a Hasher. The
// storage layer treats it as opaque.
//
// # Persistence
//
// DataSource is the capability interface the rest of the service uses to
// read and write accounts. Implementations never return errors: failures are
// logged and each operation degrades to a documented default (false, nil,
// zero, or an empty slice).
package auth
