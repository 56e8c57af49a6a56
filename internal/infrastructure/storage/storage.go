// Package storage keeps supplier documents and contract attachments in
// S3-compatible object storage. Files never pass through the API: clients
// upload and download with pre-signed URLs.
package storage

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"
	"time"
)

// ErrKeyRequired is returned for an empty object key
var ErrKeyRequired = errors.New("storage key is required")

// PresignedURL is a time-limited URL for a single object
type PresignedURL struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStorage is implemented by S3Storage and MemoryStorage
type ObjectStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (*PresignedURL, error)
	PresignDownload(ctx context.Context, key, fileName string) (*PresignedURL, error)
	// Stat returns ok=false when the object does not exist
	Stat(ctx context.Context, key string) (info ObjectInfo, ok bool, err error)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFileName reduces a client-supplied file name to a short, key-safe
// base name. Path components and ".." sequences never survive.
func SafeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	name = strings.Trim(name, "._")
	if name == "" {
		return "document"
	}
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}
