package sessionauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/sessionauth/internal/filestore"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_750_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testConfig keeps Argon2 at its floor so tests that hash stay fast.
func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, opts ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(cfg)
	for _, opt := range opts {
		opt(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func withClock(c *testClock) func(*Builder) {
	return func(b *Builder) { b.WithClock(c.Now) }
}

// holdFileLock takes the writer lock of the record file at path through an
// independent handle and keeps it until the returned func is called.
func holdFileLock(t *testing.T, path string) func() {
	t.Helper()

	f, err := filestore.Open(path, filestore.Options{LockTimeout: time.Second, LockRetryInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Update(context.Background(), func(records [][]byte) ([][]byte, bool, error) {
			close(held)
			<-release
			return records, false, nil
		})
	}()

	select {
	case <-held:
	case <-done:
		t.Fatalf("could not take lock on %s", path)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(release)
			<-done
		})
	}
	t.Cleanup(stop)
	return stop
}
