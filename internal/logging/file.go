package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

const (
	defaultMaxBytes  = 6 * 1024 * 1024
	defaultKeepBytes = 5 * 1024 * 1024
)

// FileWriter appends to a log file and, once it grows past MaxBytes, cuts it
// back to its newest KeepBytes.
type FileWriter struct {
	MaxBytes  int64
	KeepBytes int64

	mu   sync.Mutex
	file *os.File
}

// NewFileWriter opens path for appending, creating parent directories.
func NewFileWriter(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	w := &FileWriter{MaxBytes: defaultMaxBytes, KeepBytes: defaultKeepBytes, file: file}
	if err := w.trim(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *FileWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.MaxBytes || w.KeepBytes >= size {
		return nil
	}

	tail := make([]byte, w.KeepBytes)
	n, err := w.file.ReadAt(tail, size-w.KeepBytes)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end regardless of the offset.
	_, err = w.file.Write(tail[:n])
	return err
}
