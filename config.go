package sessionauth

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Config is the full Engine configuration. Start from DefaultConfig and
// override fields; Validate is run by Builder.Build.
type Config struct {
	Storage  StorageConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig locates the two record files and tunes their writer locks.
// Relative file names are resolved against DataDir.
type StorageConfig struct {
	DataDir           string
	CredentialFile    string
	SessionFile       string
	LockTimeout       time.Duration
	LockRetryInterval time.Duration
	FileMode          os.FileMode
}

// CredentialPath returns the resolved path of the credential file.
func (s StorageConfig) CredentialPath() string {
	return s.resolve(s.CredentialFile)
}

// SessionPath returns the resolved path of the session file.
func (s StorageConfig) SessionPath() string {
	return s.resolve(s.SessionFile)
}

func (s StorageConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.DataDir, name)
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime. SweepInterval of zero disables the
// background expiry sweeper.
type SessionConfig struct {
	TTL               time.Duration
	SweepInterval     time.Duration
	MaxCreateAttempts int
}

// CookieConfig shapes the cookie produced by SessionHandle.Cookie.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id cost parameters and the length policy applied
// by Register. Lengths are in bytes.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength int
	MaxLength int
}

// SecurityConfig controls the optional Redis login throttle.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	RedisPrefix           string
}

// AuditConfig controls asynchronous audit event delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DataDir:           "data",
			CredentialFile:    "users.db",
			SessionFile:       "sessions.db",
			LockTimeout:       5 * time.Second,
			LockRetryInterval: 10 * time.Millisecond,
			FileMode:          0o600,
		},
		Session: SessionConfig{
			TTL:               24 * time.Hour,
			SweepInterval:     0,
			MaxCreateAttempts: 4,
		},
		Cookie: CookieConfig{
			Name:     "session_id",
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        1,
			Parallelism: 4,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   1,
			MaxLength:   1024,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   false,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			RedisPrefix:           "sa:login",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Storage
	if c.Storage.CredentialFile == "" || c.Storage.SessionFile == "" {
		return errors.New("Storage CredentialFile and SessionFile must be set")
	}
	if c.Storage.CredentialPath() == c.Storage.SessionPath() {
		return errors.New("Storage CredentialFile and SessionFile must differ")
	}
	if c.Storage.LockTimeout <= 0 {
		return errors.New("Storage LockTimeout must be > 0")
	}
	if c.Storage.LockRetryInterval <= 0 {
		return errors.New("Storage LockRetryInterval must be > 0")
	}
	if c.Storage.FileMode&0o600 != 0o600 {
		return errors.New("Storage FileMode must grant owner read and write")
	}

	// Session
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be >= 1s")
	}
	if c.Session.SweepInterval < 0 {
		return errors.New("Session SweepInterval must be >= 0")
	}
	if c.Session.MaxCreateAttempts <= 0 {
		return errors.New("Session MaxCreateAttempts must be > 0")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security EnableIPThrottle requires EnableLoginThrottle")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
