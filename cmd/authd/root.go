package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Session authentication daemon",
		Long: `authd registers users, validates passwords and issues opaque session
cookies backed by two flat files in a data directory.

Configuration is read from a YAML file (--config), then AUTHD_* environment
variables, then command-line flags.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "YAML config file")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	registerConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newUseraddCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

// runtime is what every subcommand needs: resolved settings, a logger and a
// way to open the Engine.
type runtime struct {
	cfg    daemonConfig
	logger *slog.Logger
}

func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadDaemonConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup("authd", cfg.LogFormat, level, cmd.ErrOrStderr())

	return &runtime{cfg: cfg, logger: logger}, nil
}

// openEngine builds an Engine. The returned cleanup closes the Engine and any
// clients it owns; call it even when the command fails later.
func (rt *runtime) openEngine(ctx context.Context, withWorkers bool) (*sessionauth.Engine, func(), error) {
	engineCfg, err := rt.cfg.engineConfig()
	if err != nil {
		return nil, nil, err
	}
	if !withWorkers {
		engineCfg.Session.SweepInterval = 0
		engineCfg.Audit.Enabled = false
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	b := sessionauth.New().WithConfig(engineCfg).WithLogger(rt.logger)

	if engineCfg.Security.EnableLoginThrottle {
		rdb := redis.NewClient(&redis.Options{Addr: rt.cfg.RedisAddr})
		closers = append(closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect redis %s: %w", rt.cfg.RedisAddr, err)
		}
		b.WithRedis(rdb)
	}

	switch {
	case !engineCfg.Audit.Enabled:
	case rt.cfg.AuditLog == auditToLogger:
		b.WithAuditSink(sessionauth.NewLogSink(rt.logger))
	default:
		w, closeAudit, err := openAuditLog(rt.cfg.AuditLog)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, closeAudit)
		b.WithAuditSink(sessionauth.NewJSONWriterSink(w))
	}

	engine, err := b.Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, engine.Close)

	return engine, cleanup, nil
}

// auditToLogger routes audit events through the daemon logger instead of a file.
const auditToLogger = "log"

func openAuditLog(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
