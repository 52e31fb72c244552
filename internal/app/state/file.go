package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileName is the name of the state file inside the state directory.
const FileName = "state.json"

// FileStore keeps every pair in one JSON file, rewritten atomically on each change.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]string
}

// NewFileStore opens (or prepares) the state file inside dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create state dir %s", dir)
	}

	s := &FileStore{
		path: filepath.Join(dir, FileName),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "read state file")
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, errors.Wrapf(err, "decode state file %s", s.path)
		}
	}

	return s, nil
}

// Path returns the location of the state file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.data[key]; ok && cur == value {
		return nil
	}

	s.data[key] = value
	return s.flush()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}

	delete(s.data, key)
	return s.flush()
}

// flush writes the map to a temp file and renames it over the state file. Caller holds mu.
func (s *FileStore) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*")
	if err != nil {
		return errors.Wrap(err, "create temp state file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp state file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp state file")
	}

	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace state file")
}
