// Package export writes canonical JSON records to disk only when their
// content changed, and remembers recent writes for transient feedback.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned by Storage.Read for a missing path.
var ErrNotFound = errors.New("not found")

// Storage is the file-system collaborator.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	EnsureDir(ctx context.Context, dir string) error
}

// OSStorage stores files on the local file system.
type OSStorage struct {
	FileMode os.FileMode
	DirMode  os.FileMode
}

// NewOSStorage returns an OSStorage with 0644 files and 0755 directories.
func NewOSStorage() *OSStorage {
	return &OSStorage{FileMode: 0644, DirMode: 0755}
}

func (s *OSStorage) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *OSStorage) Write(_ context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, s.FileMode)
}

func (s *OSStorage) EnsureDir(_ context.Context, dir string) error {
	return os.MkdirAll(dir, s.DirMode)
}

// MemStorage is an in-memory Storage. It counts writes, which makes it
// useful for dry runs and tests.
type MemStorage struct {
	mu     sync.Mutex
	files  map[string][]byte
	writes int

	// FailWrites makes every Write return this error when set.
	FailWrites error
	// FailReads makes every Read return this error when set.
	FailReads error
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string][]byte)}
}

func (m *MemStorage) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemStorage) Write(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	m.writes++
	return nil
}

func (m *MemStorage) EnsureDir(context.Context, string) error { return nil }

// Writes returns how many successful writes happened.
func (m *MemStorage) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Files returns the stored paths.
func (m *MemStorage) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	return out
}

var designReplacer = strings.NewReplacer("/", "_", "\\", "_")

// RecordPath returns <outputDir>/<design>.json. Path separators in the
// design name are replaced so the file always lands inside outputDir.
func RecordPath(outputDir, design string) (string, error) {
	name := designReplacer.Replace(strings.TrimSpace(design))
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("design %q does not yield a file name", design)
	}
	return filepath.Join(outputDir, name+".json"), nil
}
