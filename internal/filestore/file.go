package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultLockTimeout       = 5 * time.Second
	DefaultLockRetryInterval = 10 * time.Millisecond
	DefaultFileMode          = os.FileMode(0o600)
)

// Options tunes lock acquisition and file permissions. Zero values take defaults.
type Options struct {
	LockTimeout       time.Duration
	LockRetryInterval time.Duration
	FileMode          os.FileMode
}

func (o Options) withDefaults() Options {
	if o.LockTimeout <= 0 {
		o.LockTimeout = DefaultLockTimeout
	}
	if o.LockRetryInterval <= 0 {
		o.LockRetryInterval = DefaultLockRetryInterval
	}
	if o.LockRetryInterval > o.LockTimeout {
		o.LockRetryInterval = o.LockTimeout
	}
	if o.FileMode == 0 {
		o.FileMode = DefaultFileMode
	}
	return o
}

// UpdateFunc receives the current records and returns the records to install.
// Returning changed=false leaves the file untouched. A non-nil error aborts the
// update and is returned from [File.Update] unchanged.
type UpdateFunc func(records [][]byte) (next [][]byte, changed bool, err error)

// File is a newline-delimited record file with a single-writer discipline.
type File struct {
	path     string
	lockPath string
	opts     Options

	mu sync.Mutex
}

// Open prepares a record file at path. The parent directory is created if needed;
// the file itself is created lazily by the first write, and a missing file reads
// as empty.
func Open(path string, opts Options) (*File, error) {
	if path == "" {
		return nil, oops.Code("FILESTORE_CONFIG").Errorf("store path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, oops.Code("FILESTORE_CONFIG").With("path", path).Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, oops.Code("FILESTORE_IO").With("path", abs).Wrapf(err, "create store directory")
	}

	return &File{
		path:     abs,
		lockPath: abs + ".lock",
		opts:     opts.withDefaults(),
	}, nil
}

// Path returns the absolute path of the data file.
func (f *File) Path() string {
	return f.path
}

// ReadRecords returns every non-empty line of the file without taking the lock.
func (f *File) ReadRecords() ([][]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, oops.Code("FILESTORE_IO").With("path", f.path).Wrapf(err, "read store")
	}
	return splitRecords(data), nil
}

// Update runs fn under the writer lock against the current records and atomically
// installs its result.
func (f *File) Update(ctx context.Context, fn UpdateFunc) error {
	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := f.ReadRecords()
	if err != nil {
		return err
	}

	next, changed, err := fn(current)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := writeAtomic(f.path, joinRecords(next), f.opts.FileMode); err != nil {
		return oops.Code("FILESTORE_IO").With("path", f.path).Wrapf(err, "replace store")
	}
	return nil
}

// lock acquires the in-process mutex and then the advisory file lock, polling both
// until LockTimeout elapses.
func (f *File) lock(ctx context.Context) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var held *os.File
	backoff := retry.WithMaxDuration(f.opts.LockTimeout, retry.NewConstant(f.opts.LockRetryInterval))

	err := retry.Do(ctx, backoff, func(context.Context) error {
		if !f.mu.TryLock() {
			return retry.RetryableError(errWouldBlock)
		}
		lf, err := acquireFileLock(f.lockPath, f.opts.FileMode)
		if err != nil {
			f.mu.Unlock()
			if errors.Is(err, errWouldBlock) {
				return retry.RetryableError(err)
			}
			return err
		}
		held = lf
		return nil
	})
	if err != nil {
		if errors.Is(err, errWouldBlock) {
			return nil, oops.Code("FILESTORE_LOCKED").
				With("path", f.path).
				With("timeout", f.opts.LockTimeout.String()).
				Wrap(ErrLocked)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, oops.Code("FILESTORE_LOCKED").
				With("path", f.path).
				Wrap(fmt.Errorf("%w: %w", ErrLocked, ctxErr))
		}
		return nil, oops.Code("FILESTORE_IO").With("path", f.lockPath).Wrapf(err, "acquire lock")
	}

	return func() {
		_ = releaseFileLock(held)
		f.mu.Unlock()
	}, nil
}

func splitRecords(data []byte) [][]byte {
	lines := bytes.Split(data, []byte{'\n'})
	out := make([][]byte, 0, len(lines))
	for _, line := range lines {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, line)
	}
	return out
}

func joinRecords(records [][]byte) []byte {
	size := 0
	for _, r := range records {
		size += len(r) + 1
	}
	buf := make([]byte, 0, size)
	for _, r := range records {
		buf = append(buf, r...)
		buf = append(buf, '\n')
	}
	return buf
}
