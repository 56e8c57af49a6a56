package storage

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// MemoryStorage is an ObjectStorage for development and tests. Uploads are
// simulated with Put; pre-signed URLs point at BaseURL and are not served.
type MemoryStorage struct {
	BaseURL string
	// AssumeExists makes Stat report every key as present, so the portal
	// flow can be exercised without a storage backend.
	AssumeExists bool

	mu      sync.RWMutex
	objects map[string]ObjectInfo
	ttl     time.Duration
}

// NewMemoryStorage creates an empty store
func NewMemoryStorage(baseURL string) *MemoryStorage {
	if baseURL == "" {
		baseURL = "http://localhost:9000/dev-bucket"
	}
	return &MemoryStorage{
		BaseURL: baseURL,
		objects: make(map[string]ObjectInfo),
		ttl:     15 * time.Minute,
	}
}

// Put records an object as uploaded
func (m *MemoryStorage) Put(key string, size int64, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = ObjectInfo{Key: key, Size: size, ContentType: contentType}
}

// PresignUpload implements ObjectStorage
func (m *MemoryStorage) PresignUpload(_ context.Context, key, contentType string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	return &PresignedURL{
		URL:       m.BaseURL + "/" + url.PathEscape(key),
		Method:    http.MethodPut,
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: time.Now().Add(m.ttl),
	}, nil
}

// PresignDownload implements ObjectStorage
func (m *MemoryStorage) PresignDownload(_ context.Context, key, _ string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	return &PresignedURL{
		URL:       m.BaseURL + "/" + url.PathEscape(key),
		Method:    http.MethodGet,
		ExpiresAt: time.Now().Add(m.ttl),
	}, nil
}

// Stat implements ObjectStorage
func (m *MemoryStorage) Stat(_ context.Context, key string) (ObjectInfo, bool, error) {
	if key == "" {
		return ObjectInfo{}, false, ErrKeyRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if info, ok := m.objects[key]; ok {
		return info, true, nil
	}
	if m.AssumeExists {
		return ObjectInfo{Key: key}, true, nil
	}
	return ObjectInfo{}, false, nil
}

var _ ObjectStorage = (*MemoryStorage)(nil)
