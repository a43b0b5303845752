package milestone

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore persists shown-milestone sets as a JSON document on disk,
// keyed by user identity. Writes are read-modify-write against the file
// contents, never a blind overwrite of an earlier in-memory snapshot.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path, creating parent directories
// as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create milestone store dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) load() (map[string][]int, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string][]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read milestone store: %w", err)
	}
	sets := map[string][]int{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &sets); err != nil {
			return nil, fmt.Errorf("parse milestone store: %w", err)
		}
	}
	return sets, nil
}

func (s *FileStore) ReadSet(key string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sets, err := s.load()
	if err != nil {
		return nil, err
	}
	return sets[key], nil
}

// WriteSet merges ids into the persisted set for key. The stored set is
// append-only: ids already present are kept even if absent from the
// argument, so a stale caller can never shrink it.
func (s *FileStore) WriteSet(key string, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sets, err := s.load()
	if err != nil {
		return err
	}

	merged := map[int]bool{}
	for _, id := range sets[key] {
		merged[id] = true
	}
	for _, id := range ids {
		merged[id] = true
	}
	out := make([]int, 0, len(merged))
	for id := range merged {
		out = append(out, id)
	}
	sort.Ints(out)
	sets[key] = out

	data, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode milestone store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write milestone store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace milestone store: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.Mutex
	sets map[string][]int
}

func NewMemStore() *MemStore {
	return &MemStore{sets: map[string][]int{}}
}

func (s *MemStore) ReadSet(key string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.sets[key]...), nil
}

func (s *MemStore) WriteSet(key string, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := map[int]bool{}
	for _, id := range s.sets[key] {
		merged[id] = true
	}
	for _, id := range ids {
		merged[id] = true
	}
	out := make([]int, 0, len(merged))
	for id := range merged {
		out = append(out, id)
	}
	sort.Ints(out)
	s.sets[key] = out
	return nil
}
