package credential

import "errors"

var (
	// ErrInvalid is returned by Create when the username or password is unacceptable.
	ErrInvalid = errors.New("credential: invalid username or password")
	// ErrExists is returned by Create when the username is already registered.
	ErrExists = errors.New("credential: username already exists")
)
