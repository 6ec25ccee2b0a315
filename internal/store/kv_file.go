package store

import (
	"errors"
	"path/filepath"
	"regexp"
	"sync"

	"tipjar/internal/domain"
)

var (
	ErrBadKey = errors.New("store key must match [a-z0-9_.-]+")

	validKey = regexp.MustCompile(`^[a-z0-9_.-]+$`)
)

// FileKV keeps one file per key under dir.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// NewFileKV returns a FileKV rooted at dir.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

func (s *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", ErrBadKey
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get returns the value stored under key.
func (s *FileKV) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	b, err := readFile(path)
	if err != nil || b == nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put overwrites the value stored under key.
func (s *FileKV) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return err
	}
	return writeFile(path, value, 0o600)
}

// Delete removes key.
func (s *FileKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.path(key)
	if err != nil {
		return err
	}
	return removeFile(path)
}

// Compile-time assertion that FileKV implements domain.KV.
var _ domain.KV = (*FileKV)(nil)
