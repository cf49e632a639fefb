// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Name validation constraints.
const (
	MinNameLength = 3
	MaxNameLength = 16
)

// nameRegex matches names made only of letters, numbers, and underscores.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Location is the position a player was at when they last quit.
type Location struct {
	X     float64
	Y     float64
	Z     float64
	World string
	Yaw   float32
	Pitch float32
}

// PlayerAuth is the persisted authentication record of a player.
//
// Name is the lower-cased account key; RealName keeps the casing the
// player joined with.
type PlayerAuth struct {
	Name             string
	RealName         string
	Password         HashedPassword
	Email            string
	RegistrationDate time.Time
	RegistrationIP   string
	UUID             *uuid.UUID
	LastIP           string
	LastLogin        *time.Time
	QuitLocation     Location
	Logged           bool
	Session          bool
}

// NewPlayerAuth creates a PlayerAuth for a new registration.
// The account key is derived from realName.
func NewPlayerAuth(realName string, password HashedPassword, registrationIP string) (*PlayerAuth, error) {
	if err := ValidateName(realName); err != nil {
		return nil, err
	}
	if strings.TrimSpace(password.Hash) == "" {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").Errorf("password hash cannot be empty")
	}
	return &PlayerAuth{
		Name:             NormalizeName(realName),
		RealName:         realName,
		Password:         password,
		RegistrationDate: time.Now().UTC().Truncate(time.Millisecond),
		RegistrationIP:   registrationIP,
	}, nil
}

// NormalizeName returns the account key for a player name.
func NormalizeName(name string) string {
	return strings.ToLower(name)
}

// ValidateName validates a player name.
// Names are MinNameLength to MaxNameLength characters of letters,
// numbers, and underscores.
func ValidateName(name string) error {
	if name == "" {
		return oops.Code("AUTH_INVALID_NAME").Errorf("name cannot be empty")
	}
	if len(name) < MinNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("min", MinNameLength).
			Errorf("name must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxNameLength {
		return oops.Code("AUTH_INVALID_NAME").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return oops.Code("AUTH_INVALID_NAME").
			Errorf("name must contain only letters, numbers, and underscores")
	}
	return nil
}
