// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrAccountExists is returned when inserting an account whose name is taken.
var ErrAccountExists = errors.New("account already exists")
