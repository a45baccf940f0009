package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseSink uploads crops to a Supabase storage bucket
type SupabaseSink struct {
	// storage-go keeps upload options in a header map shared by every
	// request of a client, so uploads get their own client behind mu
	// and JSON calls keep the default content type.
	mu      sync.Mutex
	uploads *storage_go.Client
	client  *storage_go.Client
	bucket  string
}

// NewSupabaseSink creates a sink for the given project URL, service key and bucket
func NewSupabaseSink(url, key, bucket string) *SupabaseSink {
	return &SupabaseSink{
		uploads: storage_go.NewClient(url+"/storage/v1", key, nil),
		client:  storage_go.NewClient(url+"/storage/v1", key, nil),
		bucket:  bucket,
	}
}

// Put uploads data under key, replacing any existing object, and returns its public URL
func (s *SupabaseSink) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	s.mu.Lock()
	_, err := s.uploads.UploadFile(s.bucket, key, bytes.NewReader(data), opts)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("%w: upload to supabase: %w", ErrWrite, err)
	}

	publicURL := s.client.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

// HealthCheck verifies the bucket is reachable
func (s *SupabaseSink) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		return fmt.Errorf("supabase bucket %s: %w", s.bucket, err)
	}
	return nil
}
