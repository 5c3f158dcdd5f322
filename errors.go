package sessionauth

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned by Register for an empty, malformed or
	// policy-violating username or password.
	ErrValidation = errors.New("invalid registration input")
	// ErrMissingCredentials, ErrUsernamePolicy and ErrPasswordPolicy narrow
	// ErrValidation and match it under errors.Is.
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", ErrValidation)
	ErrUsernamePolicy     = fmt.Errorf("%w: username is not valid UTF-8", ErrValidation)
	ErrPasswordPolicy     = fmt.Errorf("%w: password length outside policy", ErrValidation)
	// ErrConflict is returned by Register when the username is already taken.
	ErrConflict = errors.New("username already exists")
	// ErrInvalidCredentials is returned by Login for an unknown username and for
	// a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned by Profile when the session ID is absent,
	// expired or malformed.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrLoginRateLimited is returned by Login while the login throttle is engaged.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrStorage wraps every durable-store failure.
	ErrStorage = errors.New("storage unavailable")
	// ErrStorageLocked is returned when a store's writer lock could not be
	// acquired in time. It matches ErrStorage under errors.Is.
	ErrStorageLocked = fmt.Errorf("%w: lock wait timed out", ErrStorage)
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
