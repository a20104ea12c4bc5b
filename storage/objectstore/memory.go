package objectstore

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

// MemoryScheme prefixes the references of the objects of a MemoryStore.
const MemoryScheme = "memory://"

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Content     []byte
	ContentType string
}

// MemoryStore keeps the objects in process memory. Setting Err makes every call fail with it.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	Err     error
}

var _ core.ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", errors.Wrapf(err, "reading object %s", key)
	}
	s.mu.Lock()
	s.objects[key] = Object{Content: buf.Bytes(), ContentType: contentType}
	s.mu.Unlock()
	return MemoryScheme + key, nil
}

func (s *MemoryStore) URL(_ context.Context, key string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	return MemoryScheme + key, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// Get returns the object stored under key.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
