// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package columns

import (
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

// DefaultTable is the default accounts table name.
const DefaultTable = "authme"

// defaultNames maps each column to its default SQL name.
var defaultNames = map[ID]string{
	IDName:             "username",
	IDRealName:         "realname",
	IDPassword:         "password",
	IDSalt:             "salt",
	IDEmail:            "email",
	IDRegistrationDate: "regdate",
	IDRegistrationIP:   "regip",
	IDUUID:             "uuid",
	IDLastIP:           "ip",
	IDLastLogin:        "lastlogin",
	IDLocationX:        "x",
	IDLocationY:        "y",
	IDLocationZ:        "z",
	IDLocationWorld:    "world",
	IDLocationYaw:      "yaw",
	IDLocationPitch:    "pitch",
	IDIsLogged:         "isLogged",
	IDHasSession:       "hasSession",
}

// Config holds the table layout.
type Config struct {
	// Table is the accounts table name. Defaults to DefaultTable.
	Table string

	// Names overrides the SQL name of individual columns.
	Names map[ID]string
}

// DefaultNames returns a copy of the default column names.
func DefaultNames() map[ID]string {
	names := make(map[ID]string, len(defaultNames))
	for id, n := range defaultNames {
		names[id] = n
	}
	return names
}

// layout is a validated Config with identifiers already quoted.
type layout struct {
	table   string
	columns map[ID]string
}

func newLayout(cfg Config) (layout, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	cols := make(map[ID]string, len(defaultNames))
	for id, name := range defaultNames {
		cols[id] = pgx.Identifier{name}.Sanitize()
	}
	for id, name := range cfg.Names {
		if _, ok := defaultNames[id]; !ok {
			return layout{}, oops.Code("COLUMNS_CONFIG_INVALID").
				With("column", string(id)).
				Errorf("unknown column %q", id)
		}
		if name == "" {
			return layout{}, oops.Code("COLUMNS_CONFIG_INVALID").
				With("column", string(id)).
				Errorf("column %q has an empty name", id)
		}
		cols[id] = pgx.Identifier{name}.Sanitize()
	}

	return layout{
		table:   pgx.Identifier{table}.Sanitize(),
		columns: cols,
	}, nil
}

func (l layout) col(f Field) string {
	return l.columns[f.ID()]
}
