package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestWatcher(t *testing.T, exts []string, h Handler) (*Watcher, *fakeClock) {
	t.Helper()
	w, err := New(t.TempDir(), exts, time.Second, h, nil)
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	w.now = clock.Now
	return w, clock
}

func noop(context.Context, string) error { return nil }

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(t.TempDir(), nil, time.Second, nil, nil)
	assert.Error(t, err)
}

func TestHandleEvent_FiltersExtensions(t *testing.T) {
	w, _ := newTestWatcher(t, []string{".MD"}, noop)

	w.handleEvent(fsnotify.Event{Name: "/docs/bracket.md", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/docs/Readme.Md", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/out/Bracket.json", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/docs/gone.md", Op: fsnotify.Remove})
	w.handleEvent(fsnotify.Event{Name: "/docs/perm.md", Op: fsnotify.Chmod})

	stats := w.Stats()
	assert.Equal(t, 2, stats.Events)
	assert.Equal(t, "/docs/Readme.Md", stats.LastEventPath)
	assert.Equal(t, "modify", stats.LastEventType)
	assert.Len(t, w.debounceMap, 2)
}

func TestDue_WaitsForQuietPeriod(t *testing.T) {
	w, clock := newTestWatcher(t, []string{".md"}, noop)

	w.handleEvent(fsnotify.Event{Name: "a.md", Op: fsnotify.Create})
	clock.Advance(600 * time.Millisecond)
	w.handleEvent(fsnotify.Event{Name: "b.md", Op: fsnotify.Write})
	assert.Empty(t, w.due())

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, []string{"a.md"}, w.due())

	// another save restarts b's window
	clock.Advance(300 * time.Millisecond)
	w.handleEvent(fsnotify.Event{Name: "b.md", Op: fsnotify.Write})
	clock.Advance(900 * time.Millisecond)
	assert.Empty(t, w.due())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"b.md"}, w.due())
	assert.Empty(t, w.debounceMap)
}

func TestHandle_CountsErrors(t *testing.T) {
	w, _ := newTestWatcher(t, nil, func(_ context.Context, path string) error {
		if path == "bad.md" {
			return errors.New("missing part")
		}
		return nil
	})

	w.handle(context.Background(), "good.md")
	w.handle(context.Background(), "bad.md")

	stats := w.Stats()
	assert.Equal(t, 1, stats.Handled)
	assert.Equal(t, 1, stats.Errors)
}

func TestHandle_OneInFlightPerPath(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 4)
	var running, peak, calls int32

	w, _ := newTestWatcher(t, nil, func(context.Context, string) error {
		atomic.AddInt32(&calls, 1)
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		entered <- struct{}{}
		<-release
		atomic.AddInt32(&running, -1)
		return nil
	})

	w.dispatch(context.Background(), []string{"doc.md"})
	<-entered
	w.dispatch(context.Background(), []string{"doc.md", "doc.md"})

	// give the duplicates time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	w.inner.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(3))
	assert.Equal(t, 3, w.Stats().Handled)
}

func TestWatcher_ExportsChangedDocument(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "parts")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))

	seen := make(chan string, 8)
	w, err := New(root, []string{".md"}, 30*time.Millisecond, func(_ context.Context, path string) error {
		seen <- path
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsWatching())
	assert.ElementsMatch(t, []string{root, sub}, w.WatchedDirs())

	doc := filepath.Join(sub, "bracket.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Bracket\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("x"), 0644))

	select {
	case got := <-seen:
		assert.Equal(t, doc, got)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	w.Stop()
	assert.False(t, w.IsWatching())
	assert.GreaterOrEqual(t, w.Stats().Handled, 1)
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil, time.Second, noop, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, tickInterval(time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, tickInterval(100*time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, tickInterval(5*time.Second))
}
