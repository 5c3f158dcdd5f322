package sessionauth

import (
	"net/http"
	"time"
)

// SecurityReport summarizes the security-relevant settings an Engine runs with.
type SecurityReport struct {
	SessionTTL          time.Duration
	CookieSecure        bool
	CookieHTTPOnly      bool
	CookieSameSite      string
	Argon2              PasswordConfigReport
	MinPasswordLength   int
	LoginThrottleActive bool
	IPThrottleActive    bool
	AuditEnabled        bool
	LockTimeout         time.Duration
	BackgroundSweep     bool
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		SessionTTL:     e.config.Session.TTL,
		CookieSecure:   e.config.Cookie.Secure,
		CookieHTTPOnly: e.config.Cookie.HTTPOnly,
		CookieSameSite: sameSiteName(e.config.Cookie.SameSite),
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		MinPasswordLength:   e.config.Password.MinLength,
		LoginThrottleActive: e.limiter != nil,
		IPThrottleActive:    e.limiter != nil && e.config.Security.EnableIPThrottle,
		AuditEnabled:        e.audit != nil,
		LockTimeout:         e.config.Storage.LockTimeout,
		BackgroundSweep:     e.sweepStop != nil,
	}
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "default"
	}
}
