package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/MrEthical07/sessionauth/internal/filestore"
	"github.com/MrEthical07/sessionauth/password"
)

// Hasher derives and checks password verifiers. *password.Argon2 satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Config wires a Store. Path and Hasher are required.
type Config struct {
	Path   string
	Hasher Hasher
	Lock   filestore.Options

	Now    func() time.Time
	Logger *slog.Logger
}

// Store is the file-backed credential table.
type Store struct {
	file   *filestore.File
	hasher Hasher
	now    func() time.Time
	logger *slog.Logger

	// dummyVerifier is checked when a username is absent so that Verify costs
	// the same whether or not the user exists.
	dummyVerifier string
}

// NewStore opens the credential file described by cfg.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Hasher == nil {
		return nil, errors.New("credential: hasher is required")
	}

	file, err := filestore.Open(cfg.Path, cfg.Lock)
	if err != nil {
		return nil, err
	}

	dummy, err := dummyVerifier(cfg.Hasher)
	if err != nil {
		return nil, err
	}

	s := &Store{
		file:          file,
		hasher:        cfg.Hasher,
		now:           cfg.Now,
		logger:        cfg.Logger,
		dummyVerifier: dummy,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// dummyVerifier hashes a random secret nobody knows. The secret is shortened
// until the hasher accepts it, so a small password length cap still works.
func dummyVerifier(hasher Hasher) (string, error) {
	var seed [16]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return "", fmt.Errorf("credential: seed dummy verifier: %w", err)
	}

	secret := hex.EncodeToString(seed[:])
	for {
		dummy, err := hasher.Hash(secret)
		if errors.Is(err, password.ErrTooLong) && len(secret) > 1 {
			secret = secret[:len(secret)/2]
			continue
		}
		if err != nil {
			return "", fmt.Errorf("credential: build dummy verifier: %w", err)
		}
		return dummy, nil
	}
}

// Path returns the absolute path of the credential file.
func (s *Store) Path() string {
	return s.file.Path()
}

// Exists reports whether username has a record.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	_, found, err := s.find(ctx, username)
	return found, err
}

// Create registers username with a verifier derived from password. The hash
// is computed before the writer lock is taken.
func (s *Store) Create(ctx context.Context, username, pass string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if pass == "" {
		return fmt.Errorf("%w: password is empty", ErrInvalid)
	}

	verifier, err := s.hasher.Hash(pass)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return fmt.Errorf("credential: hash password: %w", err)
	}

	line, err := encodeRecord(Record{Username: username, Verifier: verifier, CreatedAt: s.now().Unix()})
	if err != nil {
		return err
	}

	return s.file.Update(ctx, func(records [][]byte) ([][]byte, bool, error) {
		for _, existing := range records {
			if rec, ok := s.decode(existing); ok && rec.Username == username {
				return nil, false, ErrExists
			}
		}
		return append(records, line), true, nil
	})
}

// Verify reports whether pass matches the stored verifier for username. An
// unknown username or an unreadable verifier yields false without error;
// errors are reserved for storage failures.
func (s *Store) Verify(ctx context.Context, username, pass string) (bool, error) {
	rec, found, err := s.find(ctx, username)
	if err != nil {
		return false, err
	}

	if !found {
		_, _ = s.hasher.Verify(pass, s.dummyVerifier)
		return false, nil
	}

	ok, err := s.hasher.Verify(pass, rec.Verifier)
	if err != nil {
		if errors.Is(err, password.ErrMalformedHash) {
			s.logger.Warn("stored verifier is unreadable", "path", s.file.Path(), "error", err)
		}
		return false, nil
	}
	return ok, nil
}

// Count returns the number of readable records.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	records, err := s.file.ReadRecords()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, line := range records {
		if _, ok := s.decode(line); ok {
			n++
		}
	}
	return n, nil
}

// find returns the first record for username. Reads take no lock.
func (s *Store) find(ctx context.Context, username string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	if username == "" {
		return Record{}, false, nil
	}

	records, err := s.file.ReadRecords()
	if err != nil {
		return Record{}, false, err
	}
	for _, line := range records {
		if rec, ok := s.decode(line); ok && rec.Username == username {
			return rec, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *Store) decode(line []byte) (Record, bool) {
	rec, err := decodeRecord(line)
	if err != nil {
		s.logger.Warn("skipping malformed credential record", "path", s.file.Path(), "error", err)
		return Record{}, false
	}
	return rec, true
}

// ValidateUsername rejects empty names and names that are not valid UTF-8,
// which could not round-trip through the record encoding.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is empty", ErrInvalid)
	}
	if !utf8.ValidString(username) {
		return fmt.Errorf("%w: username is not valid UTF-8", ErrInvalid)
	}
	return nil
}
