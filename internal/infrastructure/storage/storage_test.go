package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/procurement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() config.StorageConfig {
	return config.StorageConfig{
		Enabled:           true,
		Endpoint:          "localhost:9000",
		Bucket:            "procurement-test",
		Region:            "eu-west-1",
		AccessKey:         "access",
		SecretKey:         "secret",
		UsePathStyle:      true,
		PresignExpiration: 10 * time.Minute,
	}
}

func TestNewS3Storage_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		cfg := testConfig()
		cfg.Bucket = ""
		_, err := NewS3Storage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = ""
		_, err := NewS3Storage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key")
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewS3Storage(testConfig(), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "procurement-test", s.Bucket())
		assert.Equal(t, 10*time.Minute, s.presignExpiration)
	})

	t.Run("default presign expiration", func(t *testing.T) {
		cfg := testConfig()
		cfg.PresignExpiration = 0
		s, err := NewS3Storage(cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, ""},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestS3Storage_Presign(t *testing.T) {
	s, err := NewS3Storage(testConfig())
	require.NoError(t, err)
	ctx := context.Background()
	key := "onboarding/t/r/abc-tax form.pdf"

	t.Run("upload", func(t *testing.T) {
		u, err := s.PresignUpload(ctx, key, "application/pdf")
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, u.Method)
		assert.True(t, strings.HasPrefix(u.URL, "http://localhost:9000/procurement-test/onboarding/"))
		assert.Contains(t, u.URL, "X-Amz-Signature=")
		assert.Equal(t, "application/pdf", u.Headers["Content-Type"])
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), u.ExpiresAt, 5*time.Second)
	})

	t.Run("download sets attachment name", func(t *testing.T) {
		u, err := s.PresignDownload(ctx, key, "tax form.pdf")
		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, u.Method)
		assert.Contains(t, u.URL, "response-content-disposition=")
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := s.PresignUpload(ctx, "", "text/plain")
		assert.ErrorIs(t, err, ErrKeyRequired)
		_, err = s.PresignDownload(ctx, "", "")
		assert.ErrorIs(t, err, ErrKeyRequired)
		_, _, err = s.Stat(ctx, "")
		assert.ErrorIs(t, err, ErrKeyRequired)
	})
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage("")
	ctx := context.Background()

	_, ok, err := m.Stat(ctx, "contracts/a/b/file.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	m.Put("contracts/a/b/file.pdf", 2048, "application/pdf")
	info, ok, err := m.Stat(ctx, "contracts/a/b/file.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2048), info.Size)

	m.AssumeExists = true
	_, ok, _ = m.Stat(ctx, "anything")
	assert.True(t, ok)

	u, err := m.PresignUpload(ctx, "x/y z", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/dev-bucket/x%2Fy%20z", u.URL)
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"invoice.pdf":              "invoice.pdf",
		"../../etc/passwd":         "passwd",
		`C:\Users\jo\tax cert.pdf`: "tax_cert.pdf",
		"..":                       "document",
		"a..b.pdf":                 "a.b.pdf",
		"":                         "document",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeFileName(in), in)
	}
	assert.Len(t, SafeFileName(strings.Repeat("x", 300)+".pdf"), 100)
}
