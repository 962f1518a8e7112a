package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func Test_WatchLoop_Renders_Target_When_File_Written(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "app.cfg")
	other := filepath.Join(dir, "other.cfg")

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)

	defer func() { _ = w.Close() }()

	require.NoError(t, w.Add(dir))

	var renders atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- watchLoop(ctx, w, target, rate.NewLimiter(rate.Inf, 1), func() error {
			renders.Add(1)

			return nil
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	require.NoError(t, os.WriteFile(other, []byte("x\n"), 0o600))
	require.NoError(t, os.WriteFile(target, []byte("k v\n"), 0o600))

	require.Eventually(t, func() bool { return renders.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchLoop did not return after cancel")
	}
}

func Test_WatchLoop_Returns_When_Watcher_Closed(t *testing.T) {
	t.Parallel()

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- watchLoop(context.Background(), w, "/nonexistent", rate.NewLimiter(rate.Inf, 1), func() error { return nil },
			slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchLoop did not return after close")
	}
}

func Test_WatchLoop_Throttles_Renders_When_Events_Burst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "app.cfg")

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)

	defer func() { _ = w.Close() }()

	require.NoError(t, w.Add(dir))

	var renders atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first token is spent so the loop waits while the burst queues up.
	lim := rate.NewLimiter(rate.Every(300*time.Millisecond), 1)
	require.True(t, lim.Allow())

	go func() {
		_ = watchLoop(ctx, w, target, lim, func() error {
			renders.Add(1)

			return nil
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	for i := range 5 {
		require.NoError(t, os.WriteFile(target, []byte{byte('a' + i), '\n'}, 0o600))
	}

	require.Eventually(t, func() bool { return renders.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	time.Sleep(500 * time.Millisecond)
	require.Less(t, renders.Load(), int32(5))
}

func Test_LineFormat_Expands_Escapes_When_Given(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", lineFormat(""))
	require.Equal(t, "%Tk\n", lineFormat("%Tk"))
	require.Equal(t, "%Tk\t%Ts\n", lineFormat(`%Tk\t%Ts\n`))
	require.Equal(t, "a\\nb\n", lineFormat(`a\\nb`))
}
