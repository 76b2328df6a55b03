package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore persists assets in a Supabase storage bucket.
type SupabaseStore struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStore configures a Supabase-backed blob store.
func NewSupabaseStore(projectURL, serviceKey, bucket string) (*SupabaseStore, error) {
	projectURL = strings.TrimSpace(projectURL)
	if projectURL == "" || strings.TrimSpace(serviceKey) == "" {
		return nil, errors.New("storage: supabase url and service key are required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage: supabase bucket is required")
	}
	endpoint := strings.TrimRight(projectURL, "/") + "/storage/v1"
	client := storage_go.NewClient(endpoint, serviceKey, nil)
	return &SupabaseStore{client: client, bucket: bucket}, nil
}

// Upload stores the bytes under the given key inside the bucket and
// returns the bucket's public URL for it.
func (s *SupabaseStore) Upload(ctx context.Context, key, mimeType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(EnsureExtension(key, mimeType))
	if err != nil {
		return "", err
	}

	contentType := mimeType
	_, err = s.client.UploadFile(s.bucket, cleanKey, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: supabase upload: %w", err)
	}

	public := s.client.GetPublicUrl(s.bucket, cleanKey)
	if public.SignedURL == "" {
		return "", errors.New("storage: supabase returned empty public url")
	}
	return public.SignedURL, nil
}
