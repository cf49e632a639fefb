// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package cli_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

var _ = Describe("authstore CLI", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupDatabase(ctx, env.pool)
	})

	Describe("migrate", func() {
		It("applies every migration", func() {
			output, err := authstore(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "migrate up failed: %s", output)
			Expect(output).To(ContainSubstring("migrations applied"))

			output, err = authstore(ctx, "migrate", "status")
			Expect(err).NotTo(HaveOccurred(), "migrate status failed: %s", output)
			Expect(output).To(ContainSubstring("version: 2 (add_email_index)"))
			Expect(output).To(ContainSubstring("pending: none"))

			var exists bool
			err = env.pool.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'authme')",
			).Scan(&exists)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("is idempotent", func() {
			output, err := authstore(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "first migrate failed: %s", output)

			output, err = authstore(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "second migrate failed: %s", output)
		})

		It("refuses to roll back without confirmation", func() {
			output, err := authstore(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "migrate up failed: %s", output)

			output, err = authstore(ctx, "migrate", "down")
			Expect(err).To(HaveOccurred())
			Expect(output).To(ContainSubstring("--yes"))
		})
	})

	Describe("accounts", func() {
		BeforeEach(func() {
			output, err := authstore(ctx, "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "migrate up failed: %s", output)
		})

		It("registers, inspects, and deletes an account", func() {
			output, err := authstore(ctx, "account", "register", "Alice",
				"--password", "correct horse", "--email", "alice@example.com", "--ip", "10.1.2.3")
			Expect(err).NotTo(HaveOccurred(), "register failed: %s", output)
			Expect(output).To(ContainSubstring("registered Alice"))

			output, err = authstore(ctx, "account", "show", "alice")
			Expect(err).NotTo(HaveOccurred(), "show failed: %s", output)
			Expect(output).To(ContainSubstring("real_name: Alice"))
			Expect(output).To(ContainSubstring("email: alice@example.com"))

			output, err = authstore(ctx, "account", "check-password", "ALICE", "--password", "correct horse")
			Expect(err).NotTo(HaveOccurred(), "check-password failed: %s", output)
			Expect(output).To(ContainSubstring("password ok"))

			output, err = authstore(ctx, "account", "check-password", "alice", "--password", "wrong")
			Expect(err).To(HaveOccurred())

			output, err = authstore(ctx, "stats", "--email", "ALICE@example.com")
			Expect(err).NotTo(HaveOccurred(), "stats failed: %s", output)
			Expect(output).To(ContainSubstring("registered: 1"))
			Expect(output).To(ContainSubstring("accounts with ALICE@example.com: 1"))

			output, err = authstore(ctx, "account", "delete", "alice")
			Expect(err).NotTo(HaveOccurred(), "delete failed: %s", output)

			var count int
			Expect(env.pool.QueryRow(ctx, "SELECT COUNT(*) FROM authme").Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})

		It("records logins and clears them with purge-logged", func() {
			output, err := authstore(ctx, "account", "register", "Bob", "--password", "pw")
			Expect(err).NotTo(HaveOccurred(), "register failed: %s", output)

			output, err = authstore(ctx, "sessions", "login", "bob", "--ip", "10.0.0.7")
			Expect(err).NotTo(HaveOccurred(), "login failed: %s", output)

			var logged int
			Expect(env.pool.QueryRow(ctx, `SELECT "isLogged" FROM authme WHERE username = 'bob'`).Scan(&logged)).To(Succeed())
			Expect(logged).To(Equal(1))

			output, err = authstore(ctx, "sessions", "purge-logged")
			Expect(err).NotTo(HaveOccurred(), "purge failed: %s", output)

			Expect(env.pool.QueryRow(ctx, `SELECT "isLogged" FROM authme WHERE username = 'bob'`).Scan(&logged)).To(Succeed())
			Expect(logged).To(BeZero())
		})
	})
})
