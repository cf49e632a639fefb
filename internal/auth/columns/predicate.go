// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package columns

import (
	"strconv"
	"strings"
)

// Predicate is a condition on account rows.
type Predicate interface {
	build(q *query) string
}

// query accumulates positional arguments while SQL is assembled.
type query struct {
	layout layout
	args   []any
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

type eqPredicate struct {
	field Field
	value any
}

func (p eqPredicate) build(q *query) string {
	col := q.layout.col(p.field)
	if p.value == nil {
		return col + " IS NULL"
	}
	return col + " = " + q.arg(p.value)
}

// Eq matches rows where column equals value.
func Eq[T any](c Column[T], value T) Predicate {
	return eqPredicate{field: c, value: c.encode(value)}
}

type eqIgnoreCasePredicate struct {
	field Field
	value string
}

func (p eqIgnoreCasePredicate) build(q *query) string {
	return "LOWER(" + q.layout.col(p.field) + ") = LOWER(" + q.arg(p.value) + ")"
}

// EqIgnoreCase matches rows where a text column equals value, ignoring case.
func EqIgnoreCase(c Column[string], value string) Predicate {
	return eqIgnoreCasePredicate{field: c, value: value}
}

type alwaysTrue struct{}

func (alwaysTrue) build(*query) string { return "TRUE" }

// AlwaysTrue matches every row.
func AlwaysTrue() Predicate { return alwaysTrue{} }

type junction struct {
	op    string
	empty string
	preds []Predicate
}

func (j junction) build(q *query) string {
	if len(j.preds) == 0 {
		return j.empty
	}
	parts := make([]string, len(j.preds))
	for i, p := range j.preds {
		parts[i] = "(" + p.build(q) + ")"
	}
	return strings.Join(parts, " "+j.op+" ")
}

// And matches rows satisfying every predicate. An empty And matches all rows.
func And(preds ...Predicate) Predicate {
	return junction{op: "AND", empty: "TRUE", preds: preds}
}

// Or matches rows satisfying any predicate. An empty Or matches no rows.
func Or(preds ...Predicate) Predicate {
	return junction{op: "OR", empty: "FALSE", preds: preds}
}

// Assignment is a column value to write.
type Assignment struct {
	field Field
	value any
}

// Set assigns value to column.
func Set[T any](c Column[T], value T) Assignment {
	return Assignment{field: c, value: c.encode(value)}
}
