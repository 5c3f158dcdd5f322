package sessionauth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/sessionauth/credential"
	"github.com/MrEthical07/sessionauth/internal/filestore"
	"github.com/MrEthical07/sessionauth/internal/logging"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// Builder assembles an Engine. A Builder can be used for one Build only.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis supplies the client used by the optional login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for session expiry and record timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, opens both stores and starts the
// background workers the configuration asks for.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Security.EnableLoginThrottle && b.redis == nil {
		return nil, errors.New("login throttle requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	lockOpts := filestore.Options{
		LockTimeout:       cfg.Storage.LockTimeout,
		LockRetryInterval: cfg.Storage.LockRetryInterval,
		FileMode:          cfg.Storage.FileMode,
	}

	// -------- PASSWORD HASHER --------
	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxLength,
	})
	if err != nil {
		return nil, err
	}

	// -------- STORES --------
	credentials, err := credential.NewStore(credential.Config{
		Path:   cfg.Storage.CredentialPath(),
		Hasher: ph,
		Lock:   lockOpts,
		Now:    now,
		Logger: logger.With("store", "credential"),
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(session.Config{
		Path:              cfg.Storage.SessionPath(),
		Lock:              lockOpts,
		MaxCreateAttempts: cfg.Session.MaxCreateAttempts,
		Now:               now,
		Logger:            logger.With("store", "session"),
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		credentials: credentials,
		sessions:    sessions,
		logger:      logger,
		now:         now,
	}

	if cfg.Security.EnableLoginThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			KeyPrefix:             cfg.Security.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Session.SweepInterval > 0 {
		engine.startSweeper(cfg.Session.SweepInterval)
	}

	b.built = true

	return engine, nil
}
