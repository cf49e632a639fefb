// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// LogEntries decodes a buffer of JSON log lines.
func LogEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry), "invalid log line: %s", sc.Text())
		entries = append(entries, entry)
	}
	require.NoError(t, sc.Err())
	return entries
}

// AssertLoggedCode asserts that exactly one ERROR entry in buf carries code,
// and returns it.
func AssertLoggedCode(t *testing.T, buf *bytes.Buffer, code string) map[string]any {
	t.Helper()
	var found []map[string]any
	for _, entry := range LogEntries(t, buf) {
		if entry["level"] == "ERROR" && entry["code"] == code {
			found = append(found, entry)
		}
	}
	require.Len(t, found, 1, "expected one error log with code %s, got: %s", code, buf.String())
	return found[0]
}
