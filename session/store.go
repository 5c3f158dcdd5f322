package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/sessionauth/internal"
	"github.com/MrEthical07/sessionauth/internal/filestore"
)

// ErrNotFound is returned by Lookup for absent and expired sessions alike.
var ErrNotFound = errors.New("session not found")

// ErrIDExhausted is returned when every generated ID collided with an existing one.
var ErrIDExhausted = errors.New("session id space exhausted")

// ErrInvalidTTL is returned by Create for lifetimes shorter than one second.
var ErrInvalidTTL = errors.New("session ttl too short")

// ErrInvalidUsername is returned by Create for an empty username.
var ErrInvalidUsername = errors.New("session username is empty")

// DefaultMaxCreateAttempts bounds ID regeneration on collision.
const DefaultMaxCreateAttempts = 4

const minTTL = time.Second

// Config wires a Store. Path is required; everything else has a default.
type Config struct {
	Path string
	Lock filestore.Options

	MaxCreateAttempts int

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() (string, error)

	Logger *slog.Logger
}

// Store is the file-backed session table.
type Store struct {
	file        *filestore.File
	maxAttempts int
	now         func() time.Time
	newID       func() (string, error)
	logger      *slog.Logger
}

// NewStore opens the session file described by cfg.
func NewStore(cfg Config) (*Store, error) {
	file, err := filestore.Open(cfg.Path, cfg.Lock)
	if err != nil {
		return nil, err
	}

	s := &Store{
		file:        file,
		maxAttempts: cfg.MaxCreateAttempts,
		now:         cfg.Now,
		newID:       cfg.NewID,
		logger:      cfg.Logger,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxCreateAttempts
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = internal.NewSessionIDString
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Path returns the absolute path of the session file.
func (s *Store) Path() string {
	return s.file.Path()
}

// Create issues a new session for username valid for ttl. Expired records are
// pruned in the same rewrite.
func (s *Store) Create(ctx context.Context, username string, ttl time.Duration) (*Session, error) {
	if username == "" {
		return nil, ErrInvalidUsername
	}
	if ttl < minTTL {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}

	var created *Session
	err := s.file.Update(ctx, func(records [][]byte) ([][]byte, bool, error) {
		now := s.now()
		kept, taken, _ := s.prune(records, now)

		id, err := s.uniqueID(taken)
		if err != nil {
			return nil, false, err
		}

		sess := &Session{
			SchemaVersion: CurrentSchemaVersion,
			SessionID:     id,
			Username:      username,
			CreatedAt:     now.UnixMilli(),
			ExpiresAt:     expiryMillis(now.Add(ttl)),
		}
		line, err := Encode(sess)
		if err != nil {
			return nil, false, err
		}

		created = sess
		return append(kept, line), true, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) uniqueID(taken map[string]struct{}) (string, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate session id: %w", err)
		}
		if _, dup := taken[id]; !dup {
			return id, nil
		}
		s.logger.Warn("session id collision, regenerating", "attempt", attempt+1)
	}
	return "", ErrIDExhausted
}

// Lookup returns the live session with exactly sessionID. It takes no lock.
func (s *Store) Lookup(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ErrNotFound
	}

	records, err := s.file.ReadRecords()
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, line := range records {
		sess, ok := s.decode(line)
		if !ok || sess.SessionID != sessionID {
			continue
		}
		if sess.Expired(now) {
			return nil, ErrNotFound
		}
		return sess, nil
	}
	return nil, ErrNotFound
}

// Delete removes the record whose ID equals sessionID. Deleting an absent
// session is not an error; the boolean reports whether anything was removed.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	// Skip the lock entirely when there is nothing to remove.
	records, err := s.file.ReadRecords()
	if err != nil {
		return false, err
	}
	if !s.contains(records, sessionID) {
		return false, nil
	}

	removed := false
	err = s.file.Update(ctx, func(records [][]byte) ([][]byte, bool, error) {
		kept := records[:0:0]
		for _, line := range records {
			if sess, ok := s.decode(line); ok && sess.SessionID == sessionID {
				removed = true
				continue
			}
			kept = append(kept, line)
		}
		return kept, removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Sweep removes every expired record and returns how many were dropped.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	swept := 0
	err := s.file.Update(ctx, func(records [][]byte) ([][]byte, bool, error) {
		kept, _, dropped := s.prune(records, s.now())
		swept = dropped
		return kept, dropped > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// Count returns the number of live sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	records, err := s.file.ReadRecords()
	if err != nil {
		return 0, err
	}

	now := s.now()
	live := 0
	for _, line := range records {
		if sess, ok := s.decode(line); ok && !sess.Expired(now) {
			live++
		}
	}
	return live, nil
}

// prune drops expired records. Lines that fail to decode are kept verbatim.
func (s *Store) prune(records [][]byte, now time.Time) (kept [][]byte, ids map[string]struct{}, dropped int) {
	kept = make([][]byte, 0, len(records)+1)
	ids = make(map[string]struct{}, len(records))
	for _, line := range records {
		sess, ok := s.decode(line)
		if !ok {
			kept = append(kept, line)
			continue
		}
		if sess.Expired(now) {
			dropped++
			continue
		}
		ids[sess.SessionID] = struct{}{}
		kept = append(kept, line)
	}
	return kept, ids, dropped
}

func (s *Store) contains(records [][]byte, sessionID string) bool {
	for _, line := range records {
		if sess, ok := s.decode(line); ok && sess.SessionID == sessionID {
			return true
		}
	}
	return false
}

func (s *Store) decode(line []byte) (*Session, bool) {
	sess, err := Decode(line)
	if err != nil {
		s.logger.Warn("skipping malformed session record", "path", s.file.Path(), "error", err)
		return nil, false
	}
	return sess, true
}
