// Package file writes pipeline artifacts: whole JSON documents replaced
// atomically, and an append-only NDJSON journal with size-based rotation.
package file

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const defaultBufSize = 64 * 1024 // 64KB

// WriteJSON writes v as indented JSON to path, creating parent directories.
// The file is written to a temporary sibling and renamed into place.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("file output: marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file output: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("file output: create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("file output: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file output: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("file output: rename %s: %w", path, err)
	}
	return nil
}

// Option configures a Journal.
type Option func(*Journal)

// WithMaxSize sets the file size (bytes) at which rotation triggers.
// 0 (default) disables rotation.
func WithMaxSize(bytes int64) Option {
	return func(j *Journal) { j.maxSize = bytes }
}

// WithBufSize sets the bufio.Writer buffer size. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(j *Journal) { j.bufSize = bytes }
}

// Journal appends JSON values to a file, one per line.
type Journal struct {
	w       *bufio.Writer
	f       *os.File
	mu      sync.Mutex
	path    string
	maxSize int64 // 0 = no rotation
	written int64
	bufSize int
}

// OpenJournal opens (or creates) an NDJSON journal at path.
func OpenJournal(path string, opts ...Option) (*Journal, error) {
	j := &Journal{path: path, bufSize: defaultBufSize}
	for _, opt := range opts {
		opt(j)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file output: mkdir: %w", err)
	}
	if err := j.openFile(); err != nil {
		return nil, err
	}
	return j, nil
}

// Append encodes v and writes it as one line.
func (j *Journal) Append(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("file output: marshal: %w", err)
	}
	data = append(data, '\n')

	if j.maxSize > 0 && j.written > 0 && j.written+int64(len(data)) > j.maxSize {
		if err := j.rotate(); err != nil {
			return fmt.Errorf("file output: rotate: %w", err)
		}
	}

	n, err := j.w.Write(data)
	j.written += int64(n)
	if err != nil {
		return fmt.Errorf("file output: write: %w", err)
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		j.f.Close()
		return fmt.Errorf("file output: flush: %w", err)
	}
	return j.f.Close()
}

func (j *Journal) openFile() error {
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file output: open %s: %w", j.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file output: stat %s: %w", j.path, err)
	}
	j.f = f
	j.w = bufio.NewWriterSize(f, j.bufSize)
	j.written = info.Size()
	return nil
}

// rotate renames the current file to {path}.1, shifting older ones up to
// {path}.10, and starts a new file.
func (j *Journal) rotate() error {
	if err := j.w.Flush(); err != nil {
		return err
	}
	if err := j.f.Close(); err != nil {
		return err
	}
	for i := 9; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", j.path, i)
		to := fmt.Sprintf("%s.%d", j.path, i+1)
		os.Rename(from, to) // may not exist
	}
	if err := os.Rename(j.path, j.path+".1"); err != nil {
		return err
	}
	j.written = 0
	return j.openFile()
}
