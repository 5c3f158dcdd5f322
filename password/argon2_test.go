package password

import (
	"errors"
	"strings"
	"testing"
)

// fastConfig keeps the Argon2 work factor at the accepted floor so tests stay quick.
func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()

	hasher, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	hash, err := hasher.Hash("s3cr3t")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if strings.Contains(hash, "s3cr3t") {
		t.Fatal("verifier must not contain the plaintext")
	}

	ok, err := hasher.Verify("s3cr3t", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	first, err := hasher.Hash("same")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct verifiers for the same password")
	}
}

func TestVerifyUsesEmbeddedParameters(t *testing.T) {
	old := newTestHasher(t, fastConfig())
	hash, err := old.Hash("carried-over")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cfg := fastConfig()
	cfg.Time = 2
	cfg.Memory = 16 * 1024
	current := newTestHasher(t, cfg)

	ok, err := current.Verify("carried-over", hash)
	if err != nil || !ok {
		t.Fatalf("expected verifier from older parameters to verify: ok=%v err=%v", ok, err)
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	hash, err := hasher.Hash("padded")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	parts := strings.Split(hash, "$")
	// 16-byte salt and 32-byte key need 2 and 1 padding characters respectively.
	parts[4] += "=="
	parts[5] += "="

	ok, err := hasher.Verify("padded", strings.Join(parts, "$"))
	if err != nil || !ok {
		t.Fatalf("expected padded verifier to verify: ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	valid, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"not phc":       "not-a-phc-hash",
		"wrong algo":    strings.Replace(valid, "$argon2id$", "$argon2i$", 1),
		"wrong version": strings.Replace(valid, "$v=19$", "$v=18$", 1),
		"weak memory":   strings.Replace(valid, "m=8192", "m=16", 1),
		"dup param":     strings.Replace(valid, "p=1", "m=1", 1),
		"empty":         "",
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := hasher.Verify("version-test", encoded)
			if !errors.Is(err, ErrMalformedHash) {
				t.Fatalf("expected ErrMalformedHash, got ok=%v err=%v", ok, err)
			}
			if ok {
				t.Fatal("malformed verifier must never match")
			}
		})
	}
}

func TestHashAcceptsEmptyAndShortPasswords(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	for _, pwd := range []string{"", "x"} {
		hash, err := hasher.Hash(pwd)
		if err != nil {
			t.Fatalf("Hash(%q) error: %v", pwd, err)
		}
		ok, err := hasher.Verify(pwd, hash)
		if err != nil || !ok {
			t.Fatalf("Verify(%q) failed: ok=%v err=%v", pwd, ok, err)
		}
	}
}

func TestMaxPasswordBytes(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	hasher := newTestHasher(t, cfg)

	exact := strings.Repeat("b", 64)
	hash, err := hasher.Hash(exact)
	if err != nil {
		t.Fatalf("expected exactly-max password to be accepted: %v", err)
	}

	if _, err := hasher.Hash(exact + "b"); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong from Hash, got %v", err)
	}
	if _, err := hasher.Verify(exact+"b", hash); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected ErrTooLong from Verify, got %v", err)
	}
}

func TestDefaultMaxPasswordBytesApplied(t *testing.T) {
	hasher := newTestHasher(t, fastConfig())

	if _, err := hasher.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrTooLong) {
		t.Fatalf("expected password > %d bytes to be rejected, got %v", DefaultMaxPasswordBytes, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"memory":      func(c *Config) { c.Memory = 1024 },
		"time":        func(c *Config) { c.Time = 0 },
		"parallelism": func(c *Config) { c.Parallelism = 0 },
		"salt":        func(c *Config) { c.SaltLength = 8 },
		"key":         func(c *Config) { c.KeyLength = 8 },
		"max bytes":   func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := fastConfig()
			mutate(&cfg)
			if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if _, err := NewArgon2(DefaultConfig()); err != nil {
		t.Fatalf("DefaultConfig rejected: %v", err)
	}
}
