// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package columns

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/oops"

	"github.com/holomush/authstore/internal/auth"
)

// ID identifies an account column. IDs double as configuration keys for
// column name overrides.
type ID string

// Column IDs.
const (
	IDName             ID = "name"
	IDRealName         ID = "real_name"
	IDPassword         ID = "password"
	IDSalt             ID = "salt"
	IDEmail            ID = "email"
	IDRegistrationDate ID = "registration_date"
	IDRegistrationIP   ID = "registration_ip"
	IDUUID             ID = "uuid"
	IDLastIP           ID = "last_ip"
	IDLastLogin        ID = "last_login"
	IDLocationX        ID = "location_x"
	IDLocationY        ID = "location_y"
	IDLocationZ        ID = "location_z"
	IDLocationWorld    ID = "location_world"
	IDLocationYaw      ID = "location_yaw"
	IDLocationPitch    ID = "location_pitch"
	IDIsLogged         ID = "is_logged"
	IDHasSession       ID = "has_session"
)

// Field is any column descriptor. The set of fields is closed: only the
// columns declared in this package implement it.
type Field interface {
	ID() ID
	// encodeFrom returns the SQL argument for the field's value in a.
	encodeFrom(a *auth.PlayerAuth) any
	// scanTarget returns a scan destination and a decoder for it.
	scanTarget() (any, func() (any, error))
	// assign stores a decoded value into a.
	assign(a *auth.PlayerAuth, v any)
}

// Column is a typed account column. T is the Go type callers read and write.
type Column[T any] struct {
	id     ID
	get    func(*auth.PlayerAuth) T
	set    func(*auth.PlayerAuth, T)
	encode func(T) any
	scan   func() (any, func() (T, error))
}

// ID returns the column identifier.
func (c Column[T]) ID() ID { return c.id }

func (c Column[T]) encodeFrom(a *auth.PlayerAuth) any {
	return c.encode(c.get(a))
}

func (c Column[T]) scanTarget() (any, func() (any, error)) {
	dest, decode := c.scan()
	return dest, func() (any, error) {
		v, err := decode()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (c Column[T]) assign(a *auth.PlayerAuth, v any) {
	if typed, ok := v.(T); ok {
		c.set(a, typed)
	}
}

// Account columns.
var (
	Name = textColumn(IDName, false,
		func(a *auth.PlayerAuth) string { return a.Name },
		func(a *auth.PlayerAuth, v string) { a.Name = v })
	RealName = textColumn(IDRealName, false,
		func(a *auth.PlayerAuth) string { return a.RealName },
		func(a *auth.PlayerAuth, v string) { a.RealName = v })
	Password = textColumn(IDPassword, false,
		func(a *auth.PlayerAuth) string { return a.Password.Hash },
		func(a *auth.PlayerAuth, v string) { a.Password.Hash = v })
	Salt = textColumn(IDSalt, true,
		func(a *auth.PlayerAuth) string { return a.Password.Salt },
		func(a *auth.PlayerAuth, v string) { a.Password.Salt = v })
	Email = textColumn(IDEmail, true,
		func(a *auth.PlayerAuth) string { return a.Email },
		func(a *auth.PlayerAuth, v string) { a.Email = v })
	RegistrationDate = Column[time.Time]{
		id:     IDRegistrationDate,
		get:    func(a *auth.PlayerAuth) time.Time { return a.RegistrationDate },
		set:    func(a *auth.PlayerAuth, v time.Time) { a.RegistrationDate = v },
		encode: func(v time.Time) any { return v.UnixMilli() },
		scan: func() (any, func() (time.Time, error)) {
			var dest pgtype.Int8
			return &dest, func() (time.Time, error) {
				if !dest.Valid {
					return time.Time{}, nil
				}
				return time.UnixMilli(dest.Int64).UTC(), nil
			}
		},
	}
	RegistrationIP = textColumn(IDRegistrationIP, true,
		func(a *auth.PlayerAuth) string { return a.RegistrationIP },
		func(a *auth.PlayerAuth, v string) { a.RegistrationIP = v })
	UUID = Column[*uuid.UUID]{
		id:  IDUUID,
		get: func(a *auth.PlayerAuth) *uuid.UUID { return a.UUID },
		set: func(a *auth.PlayerAuth, v *uuid.UUID) { a.UUID = v },
		encode: func(v *uuid.UUID) any {
			if v == nil {
				return nil
			}
			return v.String()
		},
		scan: func() (any, func() (*uuid.UUID, error)) {
			var dest pgtype.Text
			return &dest, func() (*uuid.UUID, error) {
				if !dest.Valid || dest.String == "" {
					return nil, nil
				}
				id, err := uuid.Parse(dest.String)
				if err != nil {
					return nil, oops.Code("COLUMNS_INVALID_UUID").
						With("uuid", dest.String).
						Wrap(err)
				}
				return &id, nil
			}
		},
	}
	LastIP = textColumn(IDLastIP, true,
		func(a *auth.PlayerAuth) string { return a.LastIP },
		func(a *auth.PlayerAuth, v string) { a.LastIP = v })
	LastLogin = Column[*time.Time]{
		id:  IDLastLogin,
		get: func(a *auth.PlayerAuth) *time.Time { return a.LastLogin },
		set: func(a *auth.PlayerAuth, v *time.Time) { a.LastLogin = v },
		encode: func(v *time.Time) any {
			if v == nil {
				return nil
			}
			return v.UnixMilli()
		},
		scan: func() (any, func() (*time.Time, error)) {
			var dest pgtype.Int8
			return &dest, func() (*time.Time, error) {
				if !dest.Valid {
					return nil, nil
				}
				t := time.UnixMilli(dest.Int64).UTC()
				return &t, nil
			}
		},
	}
	LocationX = float8Column(IDLocationX,
		func(a *auth.PlayerAuth) float64 { return a.QuitLocation.X },
		func(a *auth.PlayerAuth, v float64) { a.QuitLocation.X = v })
	LocationY = float8Column(IDLocationY,
		func(a *auth.PlayerAuth) float64 { return a.QuitLocation.Y },
		func(a *auth.PlayerAuth, v float64) { a.QuitLocation.Y = v })
	LocationZ = float8Column(IDLocationZ,
		func(a *auth.PlayerAuth) float64 { return a.QuitLocation.Z },
		func(a *auth.PlayerAuth, v float64) { a.QuitLocation.Z = v })
	LocationWorld = textColumn(IDLocationWorld, false,
		func(a *auth.PlayerAuth) string { return a.QuitLocation.World },
		func(a *auth.PlayerAuth, v string) { a.QuitLocation.World = v })
	LocationYaw = float4Column(IDLocationYaw,
		func(a *auth.PlayerAuth) float32 { return a.QuitLocation.Yaw },
		func(a *auth.PlayerAuth, v float32) { a.QuitLocation.Yaw = v })
	LocationPitch = float4Column(IDLocationPitch,
		func(a *auth.PlayerAuth) float32 { return a.QuitLocation.Pitch },
		func(a *auth.PlayerAuth, v float32) { a.QuitLocation.Pitch = v })
	IsLogged = flagColumn(IDIsLogged,
		func(a *auth.PlayerAuth) bool { return a.Logged },
		func(a *auth.PlayerAuth, v bool) { a.Logged = v })
	HasSession = flagColumn(IDHasSession,
		func(a *auth.PlayerAuth) bool { return a.Session },
		func(a *auth.PlayerAuth, v bool) { a.Session = v })
)

// All lists every account column in table order.
var All = []Field{
	Name, RealName, Password, Salt, Email, RegistrationDate, RegistrationIP,
	UUID, LastIP, LastLogin, LocationX, LocationY, LocationZ, LocationWorld,
	LocationYaw, LocationPitch, IsLogged, HasSession,
}

// textColumn builds a text column. Nullable columns store "" as NULL and
// read NULL back as "".
func textColumn(id ID, nullable bool, get func(*auth.PlayerAuth) string, set func(*auth.PlayerAuth, string)) Column[string] {
	return Column[string]{
		id:  id,
		get: get,
		set: set,
		encode: func(v string) any {
			if nullable && v == "" {
				return nil
			}
			return v
		},
		scan: func() (any, func() (string, error)) {
			var dest pgtype.Text
			return &dest, func() (string, error) { return dest.String, nil }
		},
	}
}

func float8Column(id ID, get func(*auth.PlayerAuth) float64, set func(*auth.PlayerAuth, float64)) Column[float64] {
	return Column[float64]{
		id:     id,
		get:    get,
		set:    set,
		encode: func(v float64) any { return v },
		scan: func() (any, func() (float64, error)) {
			var dest pgtype.Float8
			return &dest, func() (float64, error) { return dest.Float64, nil }
		},
	}
}

func float4Column(id ID, get func(*auth.PlayerAuth) float32, set func(*auth.PlayerAuth, float32)) Column[float32] {
	return Column[float32]{
		id:     id,
		get:    get,
		set:    set,
		encode: func(v float32) any { return v },
		scan: func() (any, func() (float32, error)) {
			var dest pgtype.Float4
			return &dest, func() (float32, error) { return dest.Float32, nil }
		},
	}
}

// flagColumn builds a SMALLINT 0/1 column. The stored integer is exposed as
// is; the record side maps 1 to true.
func flagColumn(id ID, get func(*auth.PlayerAuth) bool, set func(*auth.PlayerAuth, bool)) Column[int] {
	return Column[int]{
		id: id,
		get: func(a *auth.PlayerAuth) int {
			if get(a) {
				return 1
			}
			return 0
		},
		set:    func(a *auth.PlayerAuth, v int) { set(a, v == 1) },
		encode: func(v int) any { return v },
		scan: func() (any, func() (int, error)) {
			var dest pgtype.Int2
			return &dest, func() (int, error) { return int(dest.Int16), nil }
		},
	}
}
