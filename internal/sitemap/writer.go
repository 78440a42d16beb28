package sitemap

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

const writeProbe = ".sitemap-test"

type FileInfo struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URLCount     int       `json:"urlCount"`
}

type Comparison struct {
	HasChanges     bool  `json:"hasChanges"`
	OldURLCount    int   `json:"oldUrlCount"`
	NewURLCount    int   `json:"newUrlCount"`
	SizeDifference int64 `json:"sizeDifference"`
}

// FileWriter persists sitemaps, keeping timestamped backups of the file it
// replaces.
type FileWriter struct {
	retention int
	logger    *utils.Logger
	now       func() time.Time
}

// NewFileWriter keeps the newest retention backups; values below one fall
// back to the default.
func NewFileWriter(retention int, logger *utils.Logger) *FileWriter {
	if retention <= 0 {
		retention = models.DefaultBackupRetention
	}
	return &FileWriter{retention: retention, logger: logger, now: time.Now}
}

func (w *FileWriter) WriteSitemap(xml, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errhandler.NewFileError(fmt.Sprintf("failed to create directory %s: %v", dir, err), "write sitemap", err)
	}
	if err := os.WriteFile(path, []byte(xml), 0644); err != nil {
		return errhandler.NewFileError(fmt.Sprintf("failed to write sitemap to %s: %v", path, err), "write sitemap", err)
	}
	w.logger.LogInfo("Sitemap written to: %s", path)
	return nil
}

// WriteSitemapWithBackup copies an existing file aside before writing. A
// failed backup is logged and does not stop the write.
func (w *FileWriter) WriteSitemapWithBackup(xml, path string) error {
	if _, err := os.Stat(path); err == nil {
		if backup, err := w.createBackup(path); err != nil {
			w.logger.LogWarn("Failed to create backup: %v", err)
		} else {
			w.logger.LogInfo("Backup created: %s", backup)
			w.cleanupOldBackups(path)
		}
	}
	return w.WriteSitemap(xml, path)
}

// BackupPath is the name a backup of path taken at t gets.
func BackupPath(path string, t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return path + ".backup." + stamp
}

func (w *FileWriter) createBackup(path string) (string, error) {
	backup := BackupPath(path, w.now())

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(backup)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return backup, dst.Close()
}

// cleanupOldBackups removes all but the newest backups of path.
func (w *FileWriter) cleanupOldBackups(path string) {
	dir, prefix := filepath.Dir(path), filepath.Base(path)+".backup."

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.LogWarn("Failed to cleanup old backups: %v", err)
		return
	}

	type backup struct {
		name  string
		mtime time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: e.Name(), mtime: info.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].mtime.Equal(backups[j].mtime) {
			return backups[i].mtime.After(backups[j].mtime)
		}
		return backups[i].name > backups[j].name
	})

	for i := w.retention; i < len(backups); i++ {
		if err := os.Remove(filepath.Join(dir, backups[i].name)); err != nil {
			w.logger.LogWarn("Failed to delete backup %s: %v", backups[i].name, err)
			continue
		}
		w.logger.LogDebug("Cleaned up old backup: %s", backups[i].name)
	}
}

// ValidateOutputPath reports whether a file can be written next to path,
// creating the directory if needed.
func (w *FileWriter) ValidateOutputPath(path string) bool {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.logger.LogDebug("Cannot create output directory %s: %v", dir, err)
		return false
	}

	probe := filepath.Join(dir, writeProbe)
	if err := os.WriteFile(probe, []byte("test"), 0644); err != nil {
		w.logger.LogDebug("Cannot write to %s: %v", dir, err)
		return false
	}
	return os.Remove(probe) == nil
}

// FileInfo returns nil for a missing file.
func (w *FileWriter) FileInfo(path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errhandler.NewFileError(err.Error(), "file info", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errhandler.NewFileError(err.Error(), "file info", err)
	}

	return &FileInfo{
		Path:         path,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		URLCount:     CountURLs(string(content)),
	}, nil
}

// CompareSitemaps treats a missing or unreadable side as changed.
func (w *FileWriter) CompareSitemaps(oldPath, newPath string) Comparison {
	oldInfo, oldErr := w.FileInfo(oldPath)
	newInfo, newErr := w.FileInfo(newPath)
	if oldErr != nil || newErr != nil || oldInfo == nil || newInfo == nil {
		var c Comparison
		c.HasChanges = true
		if oldInfo != nil {
			c.OldURLCount = oldInfo.URLCount
			c.SizeDifference -= oldInfo.Size
		}
		if newInfo != nil {
			c.NewURLCount = newInfo.URLCount
			c.SizeDifference += newInfo.Size
		}
		return c
	}

	oldContent, err1 := os.ReadFile(oldPath)
	newContent, err2 := os.ReadFile(newPath)
	return Comparison{
		HasChanges:     err1 != nil || err2 != nil || !bytes.Equal(oldContent, newContent),
		OldURLCount:    oldInfo.URLCount,
		NewURLCount:    newInfo.URLCount,
		SizeDifference: newInfo.Size - oldInfo.Size,
	}
}

// CountURLs counts <loc> elements.
func CountURLs(content string) int {
	return strings.Count(content, "<loc>")
}
