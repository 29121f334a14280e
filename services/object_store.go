package services

import (
	"context"
	"time"

	"github.com/advisorly/api/services/digitalocean"
)

// ObjectStore is the blob-storage surface the domain services depend on.
// Keys follow the deterministic schemes in services/digitalocean.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Download returns nil bytes (and nil error) when the key does not exist
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SpacesObjectStore implements ObjectStore on top of DigitalOcean Spaces
type SpacesObjectStore struct {
	client *digitalocean.SpacesClient
}

// NewSpacesObjectStore wraps a Spaces client as an ObjectStore
func NewSpacesObjectStore(client *digitalocean.SpacesClient) *SpacesObjectStore {
	return &SpacesObjectStore{client: client}
}

func (s *SpacesObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return s.client.UploadBytes(ctx, key, data, contentType)
}

func (s *SpacesObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	return s.client.DownloadFile(ctx, key)
}

func (s *SpacesObjectStore) Delete(ctx context.Context, key string) error {
	return s.client.DeleteFile(ctx, key)
}

func (s *SpacesObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.client.FileExists(ctx, key)
}

func (s *SpacesObjectStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.client.GetPresignedURL(key, expiry)
}
