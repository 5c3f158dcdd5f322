package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func openTestFile(t *testing.T, opts Options) *File {
	t.Helper()

	f, err := Open(filepath.Join(t.TempDir(), "records.db"), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return f
}

func appendRecord(rec string) UpdateFunc {
	return func(records [][]byte) ([][]byte, bool, error) {
		return append(records, []byte(rec)), true, nil
	}
}

func TestReadRecordsMissingFileIsEmpty(t *testing.T) {
	f := openTestFile(t, Options{})

	records, err := f.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if _, err := os.Stat(f.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected data file to be created lazily, stat err=%v", err)
	}
}

func TestUpdateAppendsAndPersists(t *testing.T) {
	f := openTestFile(t, Options{})
	ctx := context.Background()

	for _, rec := range []string{"one", "two", "three"} {
		if err := f.Update(ctx, appendRecord(rec)); err != nil {
			t.Fatalf("Update(%s) failed: %v", rec, err)
		}
	}

	reopened, err := Open(f.Path(), Options{})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	records, err := reopened.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if got := joinStrings(records); got != "one,two,three" {
		t.Fatalf("unexpected records %q", got)
	}

	info, err := os.Stat(f.Path())
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != DefaultFileMode {
		t.Fatalf("expected mode %v, got %v", DefaultFileMode, info.Mode().Perm())
	}
}

func TestUpdateUnchangedDoesNotWrite(t *testing.T) {
	f := openTestFile(t, Options{})

	err := f.Update(context.Background(), func(records [][]byte) ([][]byte, bool, error) {
		return records, false, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := os.Stat(f.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no data file after no-op update, stat err=%v", err)
	}
}

func TestUpdateReturnsCallbackErrorUnchanged(t *testing.T) {
	f := openTestFile(t, Options{})
	sentinel := errors.New("conflict")

	err := f.Update(context.Background(), func([][]byte) ([][]byte, bool, error) {
		return nil, false, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	f := openTestFile(t, Options{LockTimeout: 10 * time.Second})
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- f.Update(ctx, appendRecord(fmt.Sprintf("rec-%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Update failed: %v", err)
		}
	}

	records, err := f.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(records) != writers {
		t.Fatalf("expected %d records (no lost updates), got %d", writers, len(records))
	}
}

func TestSecondHandleTimesOutWithErrLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.db")

	holder, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open(holder) failed: %v", err)
	}
	waiter, err := Open(path, Options{LockTimeout: 50 * time.Millisecond, LockRetryInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open(waiter) failed: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- holder.Update(context.Background(), func(records [][]byte) ([][]byte, bool, error) {
			close(entered)
			<-release
			return append(records, []byte("holder")), true, nil
		})
	}()
	<-entered

	start := time.Now()
	err = waiter.Update(context.Background(), appendRecord("waiter"))
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("lock wait not bounded: %v", elapsed)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder Update failed: %v", err)
	}

	if err := waiter.Update(context.Background(), appendRecord("waiter")); err != nil {
		t.Fatalf("expected waiter to succeed once lock is free: %v", err)
	}
	records, err := waiter.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if got := joinStrings(records); got != "holder,waiter" {
		t.Fatalf("unexpected records %q", got)
	}
}

func TestUpdateHonoursContextWhileWaiting(t *testing.T) {
	f := openTestFile(t, Options{LockTimeout: time.Minute})

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.Update(context.Background(), func(records [][]byte) ([][]byte, bool, error) {
			close(entered)
			<-release
			return records, false, nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := f.Update(ctx, appendRecord("late"))
	if !errors.Is(err, ErrLocked) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrLocked wrapping deadline, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holder Update failed: %v", err)
	}
}

func TestCrashBeforeRenameLeavesOriginalIntact(t *testing.T) {
	f := openTestFile(t, Options{})
	ctx := context.Background()

	if err := f.Update(ctx, appendRecord("stable")); err != nil {
		t.Fatalf("seed Update failed: %v", err)
	}

	testHookBeforeRename = func() { panic("simulated crash") }
	defer func() { testHookBeforeRename = nil }()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected simulated crash")
			}
		}()
		_ = f.Update(ctx, appendRecord("half-written"))
	}()

	testHookBeforeRename = nil

	records, err := f.ReadRecords()
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if got := joinStrings(records); got != "stable" {
		t.Fatalf("expected original content after crash, got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}

	// The mutex must have been released by the panicking writer.
	if err := f.Update(ctx, appendRecord("after")); err != nil {
		t.Fatalf("Update after crash failed: %v", err)
	}
}

func TestSplitRecordsSkipsBlankAndCRLF(t *testing.T) {
	got := splitRecords([]byte("a\r\n\n  \nb\n"))
	if joinStrings(got) != "a,b" {
		t.Fatalf("unexpected split %q", joinStrings(got))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("", Options{}); err == nil {
		t.Fatal("expected empty path to be rejected")
	}
}

func joinStrings(records [][]byte) string {
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
