package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/sessionauth"
)

const envPrefix = "AUTHD_"

// daemonConfig is the flat, file/env/flag facing configuration of authd.
// Keys are snake_case in YAML, AUTHD_UPPER_CASE in the environment and
// kebab-case on the command line.
type daemonConfig struct {
	Listen          string        `koanf:"listen" env:"LISTEN"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	DataDir     string        `koanf:"data_dir" env:"DATA_DIR"`
	LockTimeout time.Duration `koanf:"lock_timeout" env:"LOCK_TIMEOUT"`

	SessionTTL    time.Duration `koanf:"session_ttl" env:"SESSION_TTL"`
	SweepInterval time.Duration `koanf:"sweep_interval" env:"SWEEP_INTERVAL"`
	CookieSecure  bool          `koanf:"cookie_secure" env:"COOKIE_SECURE"`

	MinPasswordLength int `koanf:"min_password_length" env:"MIN_PASSWORD_LENGTH"`

	RedisAddr        string        `koanf:"redis_addr" env:"REDIS_ADDR"`
	MaxLoginAttempts int           `koanf:"max_login_attempts" env:"MAX_LOGIN_ATTEMPTS"`
	LoginCooldown    time.Duration `koanf:"login_cooldown" env:"LOGIN_COOLDOWN"`
	IPThrottle       bool          `koanf:"ip_throttle" env:"IP_THROTTLE"`

	Metrics  bool   `koanf:"metrics" env:"METRICS"`
	AuditLog string `koanf:"audit_log" env:"AUDIT_LOG"`

	LogFormat string `koanf:"log_format" env:"LOG_FORMAT"`
	LogLevel  string `koanf:"log_level" env:"LOG_LEVEL"`
}

func defaultDaemonConfig() daemonConfig {
	base := sessionauth.DefaultConfig()
	return daemonConfig{
		Listen:            "127.0.0.1:8080",
		ShutdownTimeout:   10 * time.Second,
		DataDir:           base.Storage.DataDir,
		LockTimeout:       base.Storage.LockTimeout,
		SessionTTL:        base.Session.TTL,
		SweepInterval:     10 * time.Minute,
		CookieSecure:      base.Cookie.Secure,
		MinPasswordLength: base.Password.MinLength,
		MaxLoginAttempts:  base.Security.MaxLoginAttempts,
		LoginCooldown:     base.Security.LoginCooldownDuration,
		Metrics:           true,
		LogFormat:         "text",
		LogLevel:          "info",
	}
}

// registerConfigFlags adds one flag per daemonConfig key. Defaults shown in
// help are the built-in ones; only flags the user sets override file and env.
func registerConfigFlags(fs *pflag.FlagSet) {
	d := defaultDaemonConfig()
	fs.String("listen", d.Listen, "HTTP listen address")
	fs.Duration("shutdown-timeout", d.ShutdownTimeout, "graceful shutdown deadline")
	fs.String("data-dir", d.DataDir, "directory holding users.db and sessions.db")
	fs.Duration("lock-timeout", d.LockTimeout, "maximum wait for a store writer lock")
	fs.Duration("session-ttl", d.SessionTTL, "session lifetime")
	fs.Duration("sweep-interval", d.SweepInterval, "expired session sweep period (0 disables)")
	fs.Bool("cookie-secure", d.CookieSecure, "mark the session cookie Secure")
	fs.Int("min-password-length", d.MinPasswordLength, "minimum password length in bytes")
	fs.String("redis-addr", d.RedisAddr, "redis address; enables the login throttle")
	fs.Int("max-login-attempts", d.MaxLoginAttempts, "failed logins allowed per window")
	fs.Duration("login-cooldown", d.LoginCooldown, "login throttle window")
	fs.Bool("ip-throttle", d.IPThrottle, "also throttle failed logins per client IP")
	fs.Bool("metrics", d.Metrics, "expose /metrics")
	fs.String("audit-log", d.AuditLog, "audit log file; \"-\" writes JSON to stdout, \"log\" uses the daemon logger")
}

// loadDaemonConfig layers defaults, the YAML file at path (if any), AUTHD_*
// environment variables and explicitly set flags, in that order.
func loadDaemonConfig(path string, fs *pflag.FlagSet) (daemonConfig, error) {
	cfg := defaultDaemonConfig()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return cfg, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if fs != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return cfg, fmt.Errorf("decode flags: %w", err)
		}
	}

	return cfg, nil
}

// engineConfig maps the daemon settings onto an Engine configuration.
func (c daemonConfig) engineConfig() (sessionauth.Config, error) {
	if c.DataDir == "" {
		return sessionauth.Config{}, errors.New("data_dir must be set")
	}

	cfg := sessionauth.DefaultConfig()
	cfg.Storage.DataDir = c.DataDir
	cfg.Storage.LockTimeout = c.LockTimeout
	cfg.Session.TTL = c.SessionTTL
	cfg.Session.SweepInterval = c.SweepInterval
	cfg.Cookie.Secure = c.CookieSecure
	cfg.Password.MinLength = c.MinPasswordLength
	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics
	cfg.Audit.Enabled = c.AuditLog != ""

	if c.RedisAddr != "" {
		cfg.Security.EnableLoginThrottle = true
		cfg.Security.EnableIPThrottle = c.IPThrottle
		cfg.Security.MaxLoginAttempts = c.MaxLoginAttempts
		cfg.Security.LoginCooldownDuration = c.LoginCooldown
	}

	if err := cfg.Validate(); err != nil {
		return sessionauth.Config{}, err
	}
	return cfg, nil
}
