package filewatch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 200 * time.Millisecond

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receivedWithin(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newWatcher([]string{"/data/medallists.csv"}, debounce, clock, discardLogger())

	for range 3 {
		w.handle(fsnotify.Event{Name: "/data/medallists.csv", Op: fsnotify.Write})
		clock.Advance(debounce / 2)
	}
	assert.False(t, receivedWithin(w.Triggers(), 50*time.Millisecond), "burst still in progress")

	clock.Advance(debounce)
	assert.True(t, receivedWithin(w.Triggers(), time.Second))
	assert.False(t, receivedWithin(w.Triggers(), 50*time.Millisecond), "burst should yield one trigger")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newWatcher([]string{"/data/medallists.csv"}, debounce, clock, discardLogger())

	w.handle(fsnotify.Event{Name: "/data/notes.txt", Op: fsnotify.Write})
	clock.Advance(time.Second)

	assert.False(t, receivedWithin(w.Triggers(), 50*time.Millisecond))
}

func TestWatcher_IgnoresChmod(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := newWatcher([]string{"/data/medals_total.csv"}, debounce, clock, discardLogger())

	w.handle(fsnotify.Event{Name: "/data/medals_total.csv", Op: fsnotify.Chmod})
	clock.Advance(time.Second)

	assert.False(t, receivedWithin(w.Triggers(), 50*time.Millisecond))
}

func TestWatcher_RealFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medallists.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\n"), 0o644))

	w, err := New([]string{path}, 20*time.Millisecond, clockwork.NewRealClock(), discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.WriteFile(path, []byte("name\nA\n"), 0o644))
	assert.True(t, receivedWithin(w.Triggers(), 5*time.Second))
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New([]string{"/does/not/exist/medallists.csv"}, debounce, clockwork.NewRealClock(), discardLogger())
	require.Error(t, err)
}
