// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package columns maps account fields onto SQL columns.
//
// Each field of auth.PlayerAuth has a typed descriptor (Column[T]) that knows
// how to read the field from a record, encode it as a query argument, and
// decode it from a row. Handler uses the descriptors to run keyed and
// predicate-based retrieve, insert, update, count, and delete statements
// against a configurable table layout:
//
//	email, err := columns.Retrieve(ctx, h, "alice", columns.Email)
//	n, err := h.Count(ctx, columns.EqIgnoreCase(columns.Email, "A@B.C"))
//	ok, err := h.Update(ctx, "alice", columns.Set(columns.IsLogged, 1))
//
// Handler returns errors; it does not log.
package columns
