package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRequiresFiles(t *testing.T) {
	if _, err := New([]string{"", ""}, 0, nil); err == nil {
		t.Fatal("expected error when no paths are given")
	}
}

func TestFilesAreAbsolute(t *testing.T) {
	w, err := New([]string{"input.txt"}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range w.Files() {
		if !filepath.IsAbs(f) {
			t.Errorf("expected absolute path, got %s", f)
		}
	}
}

func TestRunDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "order.txt")
	other := filepath.Join(dir, "other.txt")
	os.WriteFile(watched, []byte("a"), 0o644)

	w, err := New([]string{watched}, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(other, []byte("ignored"), 0o644)
	for i := 0; i < 5; i++ {
		os.WriteFile(watched, []byte{byte('a' + i)}, 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("callback never ran")
		case <-time.After(20 * time.Millisecond):
		}
	}
	time.Sleep(300 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("expected one debounced rebuild, got %d", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}
