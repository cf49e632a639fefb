// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package threading checks that blocking storage calls stay off the
// foreground loop.
//
// The foreground loop marks its context with WithForeground. Blocking
// operations call Guard.ShouldBeAsync on entry; the guard reacts according
// to its Mode.
package threading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// Mode selects how a Guard reacts to a foreground call.
type Mode string

// Guard modes.
const (
	// ModeOff disables the check.
	ModeOff Mode = "off"
	// ModeWarn logs a warning and lets the call proceed.
	ModeWarn Mode = "warn"
	// ModeStrict rejects the call.
	ModeStrict Mode = "strict"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeOff, ModeWarn, ModeStrict:
		return m, nil
	case "":
		return ModeWarn, nil
	default:
		return "", oops.Code("CONFIG_INVALID").
			With("thread_safety", s).
			Errorf("unknown thread safety mode %q (want off, warn, or strict)", s)
	}
}

type foregroundKey struct{}

// WithForeground returns a context marked as running on the foreground loop.
func WithForeground(ctx context.Context) context.Context {
	return context.WithValue(ctx, foregroundKey{}, true)
}

// IsForeground reports whether ctx was marked with WithForeground.
func IsForeground(ctx context.Context) bool {
	v, ok := ctx.Value(foregroundKey{}).(bool)
	return ok && v
}

// Guard enforces the off-foreground precondition.
type Guard struct {
	mode   Mode
	logger *slog.Logger
}

// NewGuard creates a Guard. A nil logger uses slog.Default.
func NewGuard(mode Mode, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{mode: mode, logger: logger}
}

// Mode returns the guard mode.
func (g *Guard) Mode() Mode { return g.mode }

// ShouldBeAsync checks that op is not running on the foreground loop.
// It returns an error only in strict mode.
func (g *Guard) ShouldBeAsync(ctx context.Context, op string) error {
	if g == nil || g.mode == ModeOff || !IsForeground(ctx) {
		return nil
	}
	if g.mode == ModeStrict {
		return oops.Code("THREAD_SAFETY_VIOLATION").
			With("operation", op).
			Errorf("%s must not be called on the foreground loop", op)
	}
	g.logger.WarnContext(ctx, "blocking storage call on foreground loop", "operation", op)
	return nil
}
