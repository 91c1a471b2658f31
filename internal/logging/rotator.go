// Package logging provides structured logging with slog for expandd.
package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileRotator is the io.Writer feeding the expandd log file. It rotates on
// size and on day change; rotated files are optionally gzipped and pruned
// by backup count and age in the background.
type FileRotator struct {
	path       string
	maxBytes   int64
	maxBackups int
	maxAge     int
	compress   bool

	mu   sync.Mutex
	file *os.File
	size int64
	day  int
}

// NewFileRotator opens (or creates) the log file described by cfg.
func NewFileRotator(cfg *Config) (*FileRotator, error) {
	r := &FileRotator{
		path:       cfg.FilePath,
		maxBytes:   cfg.MaxSize * 1024 * 1024,
		maxBackups: cfg.MaxBackups,
		maxAge:     cfg.MaxAge,
		compress:   cfg.Compress,
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRotator) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = f
	r.size = info.Size()
	r.day = time.Now().Day()
	return nil
}

// Write implements io.Writer, rotating first when the write would push the
// file over the size limit or the calendar day has changed.
func (r *FileRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.size+int64(len(p)) > r.maxBytes || time.Now().Day() != r.day {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log: %w", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate closes the live file, renames it aside with a timestamp, and
// reopens a fresh one. Compression and pruning run in the background so a
// log write never waits on gzip or directory scans.
func (r *FileRotator) rotate() error {
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close current log: %w", err)
		}
		r.file = nil
	}

	rotated := r.rotatedName(time.Now())
	if err := os.Rename(r.path, rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}
	if err := r.open(); err != nil {
		return err
	}

	go func() {
		if r.compress {
			gzipAndReplace(rotated)
		}
		r.prune()
	}()
	return nil
}

// rotatedName places the timestamp between the stem and the extension:
// expandd.log becomes expandd-20060102-150405.log.
func (r *FileRotator) rotatedName(now time.Time) string {
	ext := filepath.Ext(r.path)
	stem := strings.TrimSuffix(r.path, ext)
	return fmt.Sprintf("%s-%s%s", stem, now.Format("20060102-150405"), ext)
}

// gzipAndReplace compresses path to path.gz and removes the original. A
// failed compression leaves the uncompressed file in place.
func gzipAndReplace(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return
	}
	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(path)
	_, copyErr := io.Copy(gz, in)
	gzErr := gz.Close()
	outErr := out.Close()
	if copyErr != nil || gzErr != nil || outErr != nil {
		os.Remove(path + ".gz")
		return
	}
	os.Remove(path)
}

// prune removes rotated files beyond the backup count or older than the
// retention age. The live log file has no timestamp suffix and is never a
// candidate.
func (r *FileRotator) prune() {
	dir := filepath.Dir(r.path)
	base := filepath.Base(r.path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type backup struct {
		path string
		mod  time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), stem+"-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].mod.Before(backups[j].mod)
	})

	cutoff := time.Now().AddDate(0, 0, -r.maxAge)
	excess := len(backups) - r.maxBackups
	for i, b := range backups {
		if i < excess || b.mod.Before(cutoff) {
			os.Remove(b.path)
		}
	}
}

// Close closes the live log file.
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Sync flushes the live log file to disk.
func (r *FileRotator) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}
