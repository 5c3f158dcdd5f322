//go:build windows

package filestore

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

var acquireFileLock = func(path string, perm os.FileMode) (*os.File, error) {
	lockFile, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, perm)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ol := new(windows.Overlapped)
	err = windows.LockFileEx(
		windows.Handle(lockFile.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1,
		0,
		ol,
	)
	if err != nil {
		_ = lockFile.Close()
		if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return nil, errWouldBlock
		}
		return nil, fmt.Errorf("LockFileEx: %w", err)
	}

	return lockFile, nil
}

func releaseFileLock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}

	ol := new(windows.Overlapped)
	_ = windows.UnlockFileEx(windows.Handle(lockFile.Fd()), 0, 1, 0, ol)
	return lockFile.Close()
}

// Directory handles cannot be fsynced on Windows; MoveFileEx is already durable.
func syncDir(string) error {
	return nil
}
