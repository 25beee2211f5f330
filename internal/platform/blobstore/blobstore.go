// Package blobstore stores uploaded claim documents. It defines the Store
// interface, a filesystem implementation used in production, an in-memory
// implementation for tests and development, and the upload Policy that
// validates a file before it is stored.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrMissingFileName = errors.New("file name is required")
)

// Store persists document bytes and returns an opaque storage path.
type Store interface {
	Save(ctx context.Context, key string, content []byte) (string, error)
	Delete(ctx context.Context, storedPath string) error
}

// BuildKey returns the object key for a document: user/<uid>/claim/<cid>/<uuid>_<name>.
// The random prefix keeps two uploads with the same file name apart.
func BuildKey(userID, claimID int64, fileName string) string {
	return fmt.Sprintf("user/%d/claim/%d/%s_%s", userID, claimID, uuid.NewString(), fileName)
}

// ---------------------------------------------------------------------------
// Filesystem implementation
// ---------------------------------------------------------------------------

// LocalStore writes blobs under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("blobstore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", ErrMissingFileName
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes content to a temp file and renames it into place, so a
// partially written file is never visible under its final name.
func (s *LocalStore) Save(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move blob into place: %w", err)
	}
	return dst, nil
}

// Delete removes a blob previously returned by Save.
func (s *LocalStore) Delete(_ context.Context, storedPath string) error {
	rel, err := filepath.Rel(s.root, storedPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the upload directory", storedPath)
	}
	if err := os.Remove(storedPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

// MemoryStore is a thread-safe Store for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, key string, content []byte) (string, error) {
	if key == "" {
		return "", ErrMissingFileName
	}
	p := "mem://" + key
	data := make([]byte, len(content))
	copy(data, content)

	s.mu.Lock()
	s.blobs[p] = data
	s.mu.Unlock()
	return p, nil
}

func (s *MemoryStore) Delete(_ context.Context, storedPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[storedPath]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, storedPath)
	return nil
}

// Get returns a copy of the stored bytes.
func (s *MemoryStore) Get(storedPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[storedPath]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
