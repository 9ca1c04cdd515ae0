package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Resource failures reported by CheckReadable and CheckWritable.
var (
	ErrEmptyPath  = errors.New("file name is empty")
	ErrNotFound   = errors.New("file not found")
	ErrEmptyFile  = errors.New("file is empty")
	ErrUnreadable = errors.New("file cannot be read")
	ErrUnwritable = errors.New("file cannot be written")
)

// ErrLineTooLong marks a single line that exceeds the per-line limit.
var ErrLineTooLong = errors.New("line too long")

const (
	maxLineBytes    = 1024 * 1024
	readBufferBytes = 64 * 1024
)

// LineFunc receives each raw line with its 1-based number. lineErr is non-nil when the line could
// not be delivered, in which case line is empty.
type LineFunc func(lineNo int, line string, lineErr error)

// LocalStorage reads input tables and writes reports under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// CheckReadable verifies that filename names an existing, non-empty, readable regular file.
func (s *LocalStorage) CheckReadable(filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}
	path := s.resolve(filename)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, filename, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnreadable, filename)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filename)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, filename, err)
	}
	return file.Close()
}

// CheckWritable verifies that filename can be created in its existing parent directory.
func (s *LocalStorage) CheckWritable(filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}
	path := s.resolve(filename)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnwritable, filename)
	}
	probe, err := os.CreateTemp(filepath.Dir(path), ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnwritable, filename, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// ScanLines opens filename and streams its lines to fn. The file is closed on every path.
func (s *LocalStorage) ScanLines(filename string, fn LineFunc) error {
	file, err := os.Open(s.resolve(filename))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, filename, err)
	}
	defer file.Close() //nolint:errcheck
	if err := ReadLines(file, fn); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnreadable, filename, err)
	}
	return nil
}

// ReadLines streams the lines of r to fn without their line terminators. A line longer than
// maxLineBytes is drained and handed to fn as ErrLineTooLong so reading can continue.
func ReadLines(r io.Reader, fn LineFunc) error {
	reader := bufio.NewReaderSize(r, readBufferBytes)
	var buf []byte
	tooLong := false
	lineNo := 0
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}

		lineNo++
		if tooLong {
			fn(lineNo, "", fmt.Errorf("%w: more than %d bytes", ErrLineTooLong, maxLineBytes))
		} else {
			fn(lineNo, string(buf), nil)
		}
		buf = buf[:0]
		tooLong = false
	}
}

// Save writes data to filename through a temporary file so readers never observe partial output.
// Like CheckWritable it expects the parent directory to exist.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnwritable, filename, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("flush output file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("set output permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnwritable, filename, err)
	}
	return path, nil
}

// Path exposes the resolved path of filename.
func (s *LocalStorage) Path(filename string) string {
	return s.resolve(filename)
}

func (s *LocalStorage) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
