// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package columns

import "github.com/holomush/authstore/internal/auth"

// Values holds several columns read from one row.
type Values struct {
	exists bool
	values map[ID]any
}

// Exists reports whether the row was found.
func (v Values) Exists() bool { return v.exists }

// Get returns the value read for column c. It returns the zero value if
// the row does not exist or c was not retrieved.
func Get[T any](v Values, c Column[T]) T {
	typed, _ := v.values[c.id].(T)
	return typed
}

// PlayerAuth builds a record from the retrieved columns, or returns nil if
// the row does not exist.
func (v Values) PlayerAuth() *auth.PlayerAuth {
	if !v.exists {
		return nil
	}
	a := &auth.PlayerAuth{}
	for _, f := range All {
		if val, ok := v.values[f.ID()]; ok {
			f.assign(a, val)
		}
	}
	return a
}
