// Package storage holds gallery photos and their generated thumbnails.
//
// Implementations:
//   - LocalStorage: files on disk, served by the app under /files/
//   - R2Storage: Cloudflare R2 (S3-compatible) object storage
package storage

import (
	"context"
	"io"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage is the object store behind the gallery. All methods are
// context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key, replacing any existing object.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a browser-usable URL for key.
	URL(ctx context.Context, key string) (string, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is detected from the key when empty.
	ContentType string

	// CacheControl is sent to browsers by backends that support it.
	CacheControl string
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string

	// BaseURL is the public prefix files are served under, e.g. "/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public domain. When empty, presigned
	// URLs valid for PresignExpiry are handed out instead.
	PublicURL     string
	PresignExpiry time.Duration

	// Region defaults to "auto", which R2 accepts for any bucket.
	Region string

	// Endpoint overrides the account endpoint, for S3-compatible test servers.
	Endpoint string
}

// =============================================================================
// Provider Constants
// =============================================================================

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// ThumbnailCacheControl is applied to generated thumbnails, which never
// change for a given key.
const ThumbnailCacheControl = "public, max-age=31536000, immutable"
