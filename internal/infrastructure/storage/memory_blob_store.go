package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryBlobStore keeps objects in process memory.
// Use this for development and tests when no S3-compatible service is available.
type MemoryBlobStore struct {
	// BaseURL is the prefix of returned object URLs.
	// Defaults to "https://storage.example.com" if not set
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryBlobStore creates a new MemoryBlobStore
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryBlobStore) base() string {
	if m.BaseURL == "" {
		return "https://storage.example.com"
	}
	return strings.TrimRight(m.BaseURL, "/")
}

// Put stores a copy of data under key and returns its URL
func (m *MemoryBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	if m.objects == nil {
		m.objects = make(map[string]memoryObject)
	}
	m.objects[key] = memoryObject{data: buf, contentType: contentType}
	m.mu.Unlock()

	return joinURL(m.base(), key), nil
}

// Delete removes the object behind url. Deleting a missing object succeeds.
func (m *MemoryBlobStore) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(m.base(), url)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// List returns the URLs of objects whose key starts with prefix, sorted by key
func (m *MemoryBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	urls := make([]string, len(keys))
	for i, k := range keys {
		urls[i] = joinURL(m.base(), k)
	}
	return urls, nil
}

// Get returns the stored bytes and content type of key
func (m *MemoryBlobStore) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Len returns the number of stored objects
func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
