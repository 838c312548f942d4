package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchTriggersOnNoteWrite(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 50*time.Millisecond, discardLogger(), func() {
			calls.Add(1)
		})
	}()

	// Let the watcher register before mutating.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "note.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("onChange never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Watch(ctx, dir, 200*time.Millisecond, discardLogger(), func() { calls.Add(1) }) }()
	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "burst.md")
		if err := os.WriteFile(name, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange fired %d times, want 1", got)
	}
}

func TestWatchIgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Watch(ctx, dir, 50*time.Millisecond, discardLogger(), func() { calls.Add(1) }) }()
	time.Sleep(100 * time.Millisecond)

	// Dotfiles and non-note files stay below the radar.
	_ = os.WriteFile(filepath.Join(dir, ".ordna-tmp-123"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("onChange fired %d times, want 0", got)
	}
}

func TestWatchPicksUpNewDirectories(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Watch(ctx, dir, 50*time.Millisecond, discardLogger(), func() { calls.Add(1) }) }()
	time.Sleep(100 * time.Millisecond)

	// Creating a directory counts as a change (a pillar may have appeared)
	// and the directory joins the watch list.
	sub := filepath.Join(dir, "newpillar")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() == 0 {
		t.Fatal("directory creation not observed")
	}

	before := calls.Load()
	if err := os.WriteFile(filepath.Join(sub, "inner.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() == before {
		t.Error("write inside new directory not observed")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, 50*time.Millisecond, discardLogger(), func() {}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
