package sessionauth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/MrEthical07/sessionauth/credential"
)

// Register creates a user. Username and password are used exactly as given:
// no trimming or case folding. Errors are ErrValidation, ErrConflict or
// ErrStorage (ErrStorageLocked on lock timeout).
func (e *Engine) Register(ctx context.Context, username, password string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricRegisterLatency, start)

	if err := e.validateRegistration(username, password); err != nil {
		e.metricInc(MetricRegisterInvalid)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return err
	}

	err := e.credentials.Create(ctx, username, password)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrExists):
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, auditEventRegisterConflict, false, username, "", ErrConflict, nil)
		return ErrConflict
	case errors.Is(err, credential.ErrInvalid):
		e.metricInc(MetricRegisterInvalid)
		err = fmt.Errorf("%w: %v", ErrValidation, err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return err
	default:
		err = e.storageError("register", err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, username, "", err, nil)
		return err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, username, "", nil, nil)
	e.logger.Info("user registered", "username", username)
	return nil
}

func (e *Engine) validateRegistration(username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}
	if !utf8.ValidString(username) {
		return ErrUsernamePolicy
	}
	if len(password) < e.config.Password.MinLength {
		return fmt.Errorf("%w: shorter than %d bytes", ErrPasswordPolicy, e.config.Password.MinLength)
	}
	if len(password) > e.config.Password.MaxLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrPasswordPolicy, e.config.Password.MaxLength)
	}
	return nil
}
