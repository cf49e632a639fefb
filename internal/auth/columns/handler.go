// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package columns

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/authstore/internal/auth"
)

// Querier abstracts query execution. It is satisfied by *pgxpool.Pool,
// pgx.Tx, and pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Handler executes typed column operations against the accounts table.
// Rows are keyed by the Name column; keys are lower-cased before use.
type Handler struct {
	q      Querier
	layout layout
}

// NewHandler creates a Handler for the given table layout.
func NewHandler(q Querier, cfg Config) (*Handler, error) {
	if q == nil {
		return nil, oops.Code("COLUMNS_CONFIG_INVALID").Errorf("querier is required")
	}
	l, err := newLayout(cfg)
	if err != nil {
		return nil, err
	}
	return &Handler{q: q, layout: l}, nil
}

// Retrieve reads one column of the row for name.
func Retrieve[T any](ctx context.Context, h *Handler, name string, c Column[T]) (auth.Value[T], error) {
	values, err := h.RetrieveAll(ctx, name, c)
	if err != nil {
		return auth.Unknown[T](), err
	}
	if !values.Exists() {
		return auth.Missing[T](), nil
	}
	return auth.Found(Get(values, c)), nil
}

// RetrieveAll reads several columns of the row for name.
func (h *Handler) RetrieveAll(ctx context.Context, name string, fields ...Field) (Values, error) {
	if len(fields) == 0 {
		return Values{}, errNoFields("retrieve")
	}
	key := auth.NormalizeName(name)

	q := &query{layout: h.layout}
	sql := "SELECT " + h.columnList(fields) + " FROM " + h.layout.table +
		" WHERE " + h.layout.col(Name) + " = " + q.arg(key)

	dests, decoders := scanTargets(fields)
	err := h.q.QueryRow(ctx, sql, q.args...).Scan(dests...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Values{}, nil
	}
	if err != nil {
		return Values{}, oops.Code("COLUMNS_RETRIEVE_FAILED").
			With("operation", "retrieve by name").
			With("name", key).
			Wrap(err)
	}

	values := Values{exists: true, values: make(map[ID]any, len(fields))}
	for i, f := range fields {
		v, err := decoders[i]()
		if err != nil {
			return Values{}, oops.Code("COLUMNS_RETRIEVE_FAILED").
				With("operation", "decode column").
				With("name", key).
				With("column", string(f.ID())).
				Wrap(err)
		}
		values.values[f.ID()] = v
	}
	return values, nil
}

// RetrieveWhere reads one column from every row matching pred.
func RetrieveWhere[T any](ctx context.Context, h *Handler, pred Predicate, c Column[T]) ([]T, error) {
	q := &query{layout: h.layout}
	sql := "SELECT " + h.layout.col(c) + " FROM " + h.layout.table + " WHERE " + pred.build(q)

	rows, err := h.q.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, oops.Code("COLUMNS_RETRIEVE_FAILED").
			With("operation", "retrieve by predicate").
			With("column", string(c.id)).
			Wrap(err)
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		dest, decode := c.scan()
		if err := rows.Scan(dest); err != nil {
			return nil, oops.Code("COLUMNS_RETRIEVE_FAILED").
				With("operation", "scan row").
				With("column", string(c.id)).
				Wrap(err)
		}
		v, err := decode()
		if err != nil {
			return nil, oops.Code("COLUMNS_RETRIEVE_FAILED").
				With("operation", "decode column").
				With("column", string(c.id)).
				Wrap(err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COLUMNS_RETRIEVE_FAILED").
			With("operation", "iterate rows").
			With("column", string(c.id)).
			Wrap(err)
	}
	return result, nil
}

// Insert writes a new row with the given fields taken from a. The Name
// column is always written.
func (h *Handler) Insert(ctx context.Context, a *auth.PlayerAuth, fields ...Field) error {
	fields = withName(fields)
	key := auth.NormalizeName(a.Name)

	q := &query{layout: h.layout}
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		if f.ID() == IDName {
			placeholders[i] = q.arg(key)
			continue
		}
		placeholders[i] = q.arg(f.encodeFrom(a))
	}
	sql := "INSERT INTO " + h.layout.table + " (" + h.columnList(fields) + ") VALUES (" +
		strings.Join(placeholders, ", ") + ")"

	if _, err := h.q.Exec(ctx, sql, q.args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_EXISTS").
				With("name", key).
				Wrap(auth.ErrAccountExists)
		}
		return oops.Code("COLUMNS_INSERT_FAILED").
			With("operation", "insert account").
			With("name", key).
			Wrap(err)
	}
	return nil
}

// UpdateFrom writes the given fields of a to the row keyed by a.Name.
// It reports whether a row was changed.
func (h *Handler) UpdateFrom(ctx context.Context, a *auth.PlayerAuth, fields ...Field) (bool, error) {
	assignments := make([]Assignment, len(fields))
	for i, f := range fields {
		assignments[i] = Assignment{field: f, value: f.encodeFrom(a)}
	}
	return h.Update(ctx, a.Name, assignments...)
}

// Update applies assignments to the row for name and reports whether a row
// was changed.
func (h *Handler) Update(ctx context.Context, name string, assignments ...Assignment) (bool, error) {
	key := auth.NormalizeName(name)
	n, err := h.update(ctx, eqPredicate{field: Name, value: key}, assignments)
	if err != nil {
		return false, oops.With("name", key).Wrap(err)
	}
	return n > 0, nil
}

// UpdateWhere applies assignments to every row matching pred and returns
// the number of rows changed.
func (h *Handler) UpdateWhere(ctx context.Context, pred Predicate, assignments ...Assignment) (int64, error) {
	return h.update(ctx, pred, assignments)
}

func (h *Handler) update(ctx context.Context, pred Predicate, assignments []Assignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, errNoFields("update")
	}

	q := &query{layout: h.layout}
	sets := make([]string, len(assignments))
	for i, as := range assignments {
		sets[i] = h.layout.col(as.field) + " = " + q.arg(as.value)
	}
	sql := "UPDATE " + h.layout.table + " SET " + strings.Join(sets, ", ") + " WHERE " + pred.build(q)

	tag, err := h.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return 0, oops.Code("COLUMNS_UPDATE_FAILED").
			With("operation", "update accounts").
			Wrap(err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of rows matching pred.
func (h *Handler) Count(ctx context.Context, pred Predicate) (int, error) {
	q := &query{layout: h.layout}
	sql := "SELECT COUNT(*) FROM " + h.layout.table + " WHERE " + pred.build(q)

	var n int64
	if err := h.q.QueryRow(ctx, sql, q.args...).Scan(&n); err != nil {
		return 0, oops.Code("COLUMNS_COUNT_FAILED").
			With("operation", "count accounts").
			Wrap(err)
	}
	return int(n), nil
}

// Delete removes the row for name and reports whether it existed.
func (h *Handler) Delete(ctx context.Context, name string) (bool, error) {
	key := auth.NormalizeName(name)
	q := &query{layout: h.layout}
	sql := "DELETE FROM " + h.layout.table + " WHERE " + h.layout.col(Name) + " = " + q.arg(key)

	tag, err := h.q.Exec(ctx, sql, q.args...)
	if err != nil {
		return false, oops.Code("COLUMNS_DELETE_FAILED").
			With("operation", "delete account").
			With("name", key).
			Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (h *Handler) columnList(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = h.layout.col(f)
	}
	return strings.Join(names, ", ")
}

func scanTargets(fields []Field) ([]any, []func() (any, error)) {
	dests := make([]any, len(fields))
	decoders := make([]func() (any, error), len(fields))
	for i, f := range fields {
		dests[i], decoders[i] = f.scanTarget()
	}
	return dests, decoders
}

// withName returns fields with the Name column first, adding it if absent.
func withName(fields []Field) []Field {
	for _, f := range fields {
		if f.ID() == IDName {
			return fields
		}
	}
	return append([]Field{Name}, fields...)
}

func errNoFields(op string) error {
	return oops.Code("COLUMNS_NO_FIELDS").
		With("operation", op).
		Errorf("at least one column is required")
}
