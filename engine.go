package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/sessionauth/credential"
	"github.com/MrEthical07/sessionauth/internal"
	"github.com/MrEthical07/sessionauth/internal/filestore"
	"github.com/MrEthical07/sessionauth/internal/logging"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/session"
)

// Engine implements registration, login, logout and session lookup on top of
// the credential and session stores. It is safe for concurrent use; several
// Engines (or processes) may share the same data files.
type Engine struct {
	config      Config
	credentials *credential.Store
	sessions    *session.Store
	limiter     *rate.Limiter
	audit       *auditDispatcher
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time

	sweepStop chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

// Close stops the expiry sweeper and drains queued audit events. It is safe
// to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.sweepStop != nil {
			close(e.sweepStop)
			<-e.sweepDone
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Login checks username and password and, on success, issues a new session.
// An unknown username and a wrong password both yield ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, username, password string) (*SessionHandle, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	ip := clientIPFromContext(ctx)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, username, ip); err != nil {
			return nil, e.throttleError(ctx, username, err)
		}
	}

	// Empty input takes the same hashing path as any other miss.
	ok, err := e.credentials.Verify(ctx, username, password)
	if err != nil {
		return nil, e.storageError("login", err)
	}

	if !ok {
		e.metricInc(MetricLoginFailure)
		if e.limiter != nil {
			if err := e.limiter.RecordFailure(ctx, username, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
				logging.LogError(e.logger, "record login failure", err)
			}
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	sess, err := e.sessions.Create(ctx, username, e.config.Session.TTL)
	if err != nil {
		err = e.storageError("login", err)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", err, nil)
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, username, ip); err != nil {
			logging.LogError(e.logger, "reset login throttle", err)
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, username, sess.SessionID, nil, nil)
	e.logger.Debug("session issued", "username", username, "session", internal.Fingerprint(sess.SessionID))

	return &SessionHandle{
		SessionID: sess.SessionID,
		Username:  sess.Username,
		ExpiresAt: sess.ExpiresTime(),
		cookie:    e.config.Cookie,
	}, nil
}

// Logout retires sessionID. Absent, expired and malformed IDs are not errors;
// only storage failures are reported.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if _, err := internal.ParseSessionID(sessionID); err != nil {
		return nil
	}

	removed, err := e.sessions.Delete(ctx, sessionID)
	if err != nil {
		return e.storageError("logout", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", sessionID, nil, func() map[string]string {
		if removed {
			return map[string]string{"removed": "true"}
		}
		return map[string]string{"removed": "false"}
	})
	return nil
}

// Profile returns the username owning a live session.
func (e *Engine) Profile(ctx context.Context, sessionID string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if _, err := internal.ParseSessionID(sessionID); err != nil {
		e.metricInc(MetricProfileUnauthenticated)
		return "", ErrUnauthenticated
	}

	sess, err := e.sessions.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.metricInc(MetricProfileUnauthenticated)
			return "", ErrUnauthenticated
		}
		return "", e.storageError("profile", err)
	}

	e.metricInc(MetricProfileSuccess)
	return sess.Username, nil
}

// SweepExpired removes every expired session and returns how many were dropped.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}

	n, err := e.sessions.Sweep(ctx)
	if err != nil {
		return 0, e.storageError("sweep", err)
	}
	if n > 0 {
		e.metrics.Add(MetricSessionSwept, uint64(n))
		e.emitAudit(ctx, auditEventSessionsSwept, true, "", "", nil, func() map[string]string {
			return map[string]string{"count": fmt.Sprint(n)}
		})
	}
	return n, nil
}

// Stats counts registered users and live sessions.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	if e == nil {
		return Stats{}, ErrEngineNotReady
	}

	users, err := e.credentials.Count(ctx)
	if err != nil {
		return Stats{}, e.storageError("stats", err)
	}
	live, err := e.sessions.Count(ctx)
	if err != nil {
		return Stats{}, e.storageError("stats", err)
	}
	return Stats{Users: users, ActiveSessions: live}, nil
}

// CookieName is the name of the session cookie.
func (e *Engine) CookieName() string {
	return e.config.Cookie.Name
}

// ClearingCookie returns a cookie that makes the client drop its session cookie.
func (e *Engine) ClearingCookie() *http.Cookie {
	return &http.Cookie{
		Name:     e.config.Cookie.Name,
		Value:    "",
		Path:     e.config.Cookie.Path,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   e.config.Cookie.Secure,
		HttpOnly: e.config.Cookie.HTTPOnly,
		SameSite: e.config.Cookie.SameSite,
	}
}

func (e *Engine) storageError(op string, err error) error {
	if errors.Is(err, filestore.ErrLocked) {
		e.metricInc(MetricStorageLocked)
		logging.LogError(e.logger, op+": store lock not acquired", err)
		return fmt.Errorf("%w: %v", ErrStorageLocked, err)
	}
	e.metricInc(MetricStorageError)
	logging.LogError(e.logger, op+": storage failure", err)
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func (e *Engine) throttleError(ctx context.Context, username string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, username, "", ErrLoginRateLimited, nil)
		return ErrLoginRateLimited
	}
	// A throttle that cannot count refuses the attempt.
	e.metricInc(MetricStorageError)
	logging.LogError(e.logger, "login throttle unavailable", err)
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
