package fsutil

import (
	"os"
	"time"
)

// Stater looks up file modification times. ok is false when the file can't
// be statted.
type Stater interface {
	ModTime(path string) (t time.Time, ok bool)
}

// OS stats the real filesystem.
type OS struct{}

func (OS) ModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Fixed reports the same time for every path in the map and fails for the
// rest.
type Fixed map[string]time.Time

func (f Fixed) ModTime(path string) (time.Time, bool) {
	t, ok := f[path]
	return t, ok
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
