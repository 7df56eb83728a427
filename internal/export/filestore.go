package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists audit files and returns the URL they can be fetched
// from. Production deployments point this at object storage; the in-repo
// implementations cover local use and tests.
type FileStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// DirStore writes files into a local directory and returns file:// URLs.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Put(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return "file://" + abs, nil
}

// MemStore keeps files in memory. Setting Err makes every Put fail with
// it, which tests use to simulate storage outages.
type MemStore struct {
	mu    sync.Mutex
	files map[string][]byte

	Err error
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Put(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.files[name] = data
	return "mem://" + name, nil
}

// Get returns a stored file and whether it exists.
func (s *MemStore) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Len returns the number of stored files.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
