package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemap-gen/internal/utils"
)

func startWatcher(t *testing.T, roots ...string) <-chan []string {
	t.Helper()
	changes := make(chan []string, 16)
	w := New(roots, func(_ context.Context, changed []string) { changes <- changed }, utils.Discard())
	w.Debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return changes
}

// touchUntil writes path until the watcher reports a change containing it.
func touchUntil(t *testing.T, changes <-chan []string, path string) []string {
	t.Helper()
	var got []string
	i := 0
	require.Eventually(t, func() bool {
		i++
		_ = os.WriteFile(path, []byte(strconv.Itoa(i)), 0644)
		select {
		case got = <-changes:
			for _, name := range got {
				if name == path {
					return true
				}
			}
		case <-time.After(150 * time.Millisecond):
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	return got
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root)

	touchUntil(t, changes, filepath.Join(root, "page.tsx"))
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root)

	// make sure the watcher is running first
	touchUntil(t, changes, filepath.Join(root, "page.tsx"))

	sub := filepath.Join(root, "blog", "[slug]")
	require.NoError(t, os.MkdirAll(sub, 0755))
	touchUntil(t, changes, filepath.Join(sub, "page.tsx"))
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	changes := startWatcher(t, root)
	touchUntil(t, changes, filepath.Join(root, "warmup"))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "burst-"+strconv.Itoa(i)), nil, 0644))
	}

	// late warmup batches may still be queued
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-changes:
			burst := 0
			for _, name := range got {
				if strings.HasPrefix(filepath.Base(name), "burst-") {
					burst++
				}
			}
			if burst == 0 {
				continue
			}
			assert.Equal(t, 5, burst)
			return
		case <-timeout:
			t.Fatal("no change reported")
		}
	}
}

func TestWatcherMissingRoots(t *testing.T) {
	w := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context, []string) {}, utils.Discard())
	assert.Error(t, w.Run(context.Background()))
}
