// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package datasource_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/holomush/authstore/internal/auth"
	"github.com/holomush/authstore/internal/store"
	"github.com/holomush/authstore/internal/threading"
)

func newAccount(name, email string) *auth.PlayerAuth {
	a, err := auth.NewPlayerAuth(name, auth.HashedPassword{Hash: "$argon2id$v=19$m=65536,t=1,p=4$a2V5", Salt: "c2FsdA"}, "127.0.0.1")
	Expect(err).NotTo(HaveOccurred())
	a.Email = email
	id := uuid.New()
	a.UUID = &id
	return a
}

var _ = Describe("SQLDataSource", func() {
	BeforeEach(func() {
		cleanupAccounts(env.ctx, env.pool)
	})

	Describe("registration", func() {
		It("saves an account and reads it back", func() {
			a := newAccount("Bobby", "bobby@example.com")
			Expect(env.ds.SaveAuth(env.ctx, a)).To(BeTrue())

			Expect(env.ds.IsAuthAvailable(env.ctx, "BOBBY")).To(BeTrue())

			got := env.ds.GetAuth(env.ctx, "bobby")
			Expect(got).NotTo(BeNil())
			Expect(got.Name).To(Equal("bobby"))
			Expect(got.RealName).To(Equal("Bobby"))
			Expect(got.Email).To(Equal("bobby@example.com"))
			Expect(got.RegistrationDate).To(Equal(a.RegistrationDate))
			Expect(*got.UUID).To(Equal(*a.UUID))
			Expect(got.LastLogin).To(BeNil())
			Expect(got.Logged).To(BeFalse())

			pw := env.ds.GetPassword(env.ctx, "bobby")
			Expect(pw).NotTo(BeNil())
			Expect(*pw).To(Equal(a.Password))
		})

		It("rejects a duplicate name regardless of case", func() {
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Bobby", ""))).To(BeTrue())
			Expect(env.ds.SaveAuth(env.ctx, newAccount("bobby", ""))).To(BeFalse())
			Expect(env.ds.GetAccountsRegistered(env.ctx)).To(Equal(1))
			Expect(testutil.ToFloat64(env.metrics.Degraded.WithLabelValues("save_auth", "error"))).To(BeNumerically(">=", 1))
		})

		It("removes an account", func() {
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Bobby", ""))).To(BeTrue())
			Expect(env.ds.RemoveAuth(env.ctx, "bobby")).To(BeTrue())
			Expect(env.ds.IsAuthAvailable(env.ctx, "bobby")).To(BeFalse())
			Expect(env.ds.RemoveAuth(env.ctx, "bobby")).To(BeFalse())
		})
	})

	Describe("flags", func() {
		BeforeEach(func() {
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Alice", ""))).To(BeTrue())
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Bobby", ""))).To(BeTrue())
		})

		It("toggles the logged-in flag", func() {
			Expect(env.ds.IsLogged(env.ctx, "alice")).To(BeFalse())
			env.ds.SetLogged(env.ctx, "alice")
			Expect(env.ds.IsLogged(env.ctx, "alice")).To(BeTrue())
			env.ds.SetUnlogged(env.ctx, "alice")
			Expect(env.ds.IsLogged(env.ctx, "alice")).To(BeFalse())
		})

		It("toggles the session flag", func() {
			env.ds.GrantSession(env.ctx, "bobby")
			Expect(env.ds.HasSession(env.ctx, "bobby")).To(BeTrue())
			env.ds.RevokeSession(env.ctx, "bobby")
			Expect(env.ds.HasSession(env.ctx, "bobby")).To(BeFalse())
		})

		It("purges every logged-in flag", func() {
			env.ds.SetLogged(env.ctx, "alice")
			env.ds.SetLogged(env.ctx, "bobby")
			env.ds.GrantSession(env.ctx, "bobby")

			env.ds.PurgeLogged(env.ctx)

			Expect(env.ds.IsLogged(env.ctx, "alice")).To(BeFalse())
			Expect(env.ds.IsLogged(env.ctx, "bobby")).To(BeFalse())
			Expect(env.ds.HasSession(env.ctx, "bobby")).To(BeTrue())
		})

		It("reports false for unknown accounts", func() {
			Expect(env.ds.IsLogged(env.ctx, "ghost")).To(BeFalse())
			Expect(env.ds.HasSession(env.ctx, "ghost")).To(BeFalse())
		})
	})

	Describe("updates", func() {
		var a *auth.PlayerAuth

		BeforeEach(func() {
			a = newAccount("Bobby", "")
			Expect(env.ds.SaveAuth(env.ctx, a)).To(BeTrue())
		})

		It("stores session data", func() {
			last := time.Now().UTC().Truncate(time.Millisecond)
			a.LastIP = "10.0.0.7"
			a.LastLogin = &last
			a.RealName = "BoBBy"
			Expect(env.ds.UpdateSession(env.ctx, a)).To(BeTrue())

			got := env.ds.GetAuth(env.ctx, "bobby")
			Expect(got.LastIP).To(Equal("10.0.0.7"))
			Expect(*got.LastLogin).To(Equal(last))
			Expect(got.RealName).To(Equal("BoBBy"))
			Expect(env.ds.GetAllAuthsByIP(env.ctx, "10.0.0.7")).To(ConsistOf("bobby"))
		})

		It("stores a new password", func() {
			Expect(env.ds.UpdatePasswordFor(env.ctx, "BOBBY", auth.HashedPassword{Hash: "new"})).To(BeTrue())
			Expect(*env.ds.GetPassword(env.ctx, "bobby")).To(Equal(auth.HashedPassword{Hash: "new"}))
		})

		It("stores the quit location", func() {
			a.QuitLocation = auth.Location{X: 1.5, Y: 70, Z: -8.25, World: "world_the_end", Yaw: 45.5, Pitch: -10}
			Expect(env.ds.UpdateQuitLoc(env.ctx, a)).To(BeTrue())
			Expect(env.ds.GetAuth(env.ctx, "bobby").QuitLocation).To(Equal(a.QuitLocation))
		})

		It("stores and counts emails ignoring case", func() {
			a.Email = "Bobby@Example.com"
			Expect(env.ds.UpdateEmail(env.ctx, a)).To(BeTrue())
			Expect(env.ds.CountAuthsByEmail(env.ctx, "bobby@example.com")).To(Equal(1))

			email := env.ds.GetEmail(env.ctx, "bobby")
			Expect(email.Exists()).To(BeTrue())
			Expect(email.Get()).To(Equal("Bobby@Example.com"))
		})

		It("counts emails stored with different casing as one address", func() {
			a.Email = "Bobby@Example.com"
			Expect(env.ds.UpdateEmail(env.ctx, a)).To(BeTrue())
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Robert", "bobby@EXAMPLE.com"))).To(BeTrue())

			Expect(env.ds.CountAuthsByEmail(env.ctx, "BOBBY@example.com")).To(Equal(2))
			Expect(env.ds.CountAuthsByEmail(env.ctx, "robert@example.com")).To(Equal(0))
		})

		It("stores the display name", func() {
			Expect(env.ds.UpdateRealName(env.ctx, "bobby", "BOBBY")).To(BeTrue())
			Expect(env.ds.GetAuth(env.ctx, "bobby").RealName).To(Equal("BOBBY"))
		})

		It("reports false when updating an unknown account", func() {
			Expect(env.ds.UpdateRealName(env.ctx, "ghost", "Ghost")).To(BeFalse())
		})
	})

	Describe("thread safety", func() {
		It("rejects foreground calls in strict mode", func() {
			Expect(env.ds.SaveAuth(env.ctx, newAccount("Bobby", ""))).To(BeTrue())
			fg := threading.WithForeground(env.ctx)
			Expect(env.ds.IsAuthAvailable(fg, "bobby")).To(BeFalse())
			Expect(env.ds.IsAuthAvailable(env.ctx, "bobby")).To(BeTrue())
		})
	})
})

var _ = Describe("Migrator", func() {
	It("reports the latest version as applied", func() {
		m, err := store.NewMigrator(env.connStr)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = m.Close() }()

		st, err := m.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Dirty).To(BeFalse())
		Expect(st.Pending).To(BeEmpty())
		Expect(st.Version).To(Equal(uint(2)))
	})
})
