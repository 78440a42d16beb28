package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange once the watched trees have been quiet for the
// debounce interval.
type Watcher struct {
	Roots    []string
	Debounce time.Duration
	OnChange func(ctx context.Context, changed []string)
	Logger   *utils.Logger

	fsw *fsnotify.Watcher
}

func New(roots []string, onChange func(ctx context.Context, changed []string), logger *utils.Logger) *Watcher {
	return &Watcher{Roots: roots, Debounce: DefaultDebounce, OnChange: onChange, Logger: logger}
}

// Run watches until ctx is done. Roots that don't exist are skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	watching := 0
	for _, root := range w.Roots {
		if _, err := os.Stat(root); err != nil {
			w.Logger.LogWarn("Not watching %s: %v", root, err)
			continue
		}
		if err := w.watchTree(root); err != nil {
			return err
		}
		watching++
	}
	if watching == 0 {
		return fmt.Errorf("none of the watch roots exist: %s", strings.Join(w.Roots, ", "))
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = map[string]bool{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			w.Logger.LogDebug("Filesystem changed: %s", evt)
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.watchTree(evt.Name); err != nil {
						w.Logger.LogWarn("Could not watch %s: %v", evt.Name, err)
					}
				}
			}
			pending[evt.Name] = true

			// many events arrive for a single save
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			w.OnChange(ctx, changed)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.LogError("Watcher error: %v", err)
		}
	}
}

// watchTree adds root and every directory below it.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.Logger.LogDebug("Watching %s", path)
		return w.fsw.Add(path)
	})
}
