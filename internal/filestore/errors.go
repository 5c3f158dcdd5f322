package filestore

import "errors"

var (
	// ErrLocked is returned when the writer lock could not be acquired within the timeout.
	ErrLocked = errors.New("store locked")

	errWouldBlock = errors.New("lock held elsewhere")
)
