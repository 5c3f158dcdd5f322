package main

import (
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired sessions from the session file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			engine, cleanup, err := rt.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := engine.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("removed %d expired sessions\n", n)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user and session counts with the effective security settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			engine, cleanup, err := rt.openEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := engine.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("users: %d\nactive sessions: %d\n", stats.Users, stats.ActiveSessions)

			report := engine.SecurityReport()
			cmd.Printf("session ttl: %s\ncookie secure: %t\nlogin throttle: %t\nargon2id: m=%d t=%d p=%d\n",
				report.SessionTTL, report.CookieSecure, report.LoginThrottleActive,
				report.Argon2.Memory, report.Argon2.Time, report.Argon2.Parallelism)
			return nil
		},
	}
}
