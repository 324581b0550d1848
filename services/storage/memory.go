package storagesvc

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/aulatech/aula/core/material"
)

// MemoryStore holds objects in process memory. It backs tests and local
// development without a bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ material.ObjectStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (st *MemoryStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	st.objects[key] = data
	st.mu.Unlock()
	return int64(len(data)), nil
}

func (st *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	st.mu.RLock()
	data, ok := st.objects[key]
	st.mu.RUnlock()
	if !ok {
		return nil, material.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (st *MemoryStore) Delete(ctx context.Context, key string) error {
	st.mu.Lock()
	delete(st.objects, key)
	st.mu.Unlock()
	return nil
}

func (st *MemoryStore) URL(key string) string {
	return "/v1/materials/object/" + key
}
