package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// BlobStore persists binary assets and returns a public URL.
type BlobStore interface {
	Save(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// SupabaseBlobStore saves objects to a Supabase Storage bucket over its
// REST API. Uploads use x-upsert so re-saving the same path overwrites in
// place instead of failing.
type SupabaseBlobStore struct {
	projectURL string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseBlobStore(projectURL, serviceKey, bucket string) *SupabaseBlobStore {
	return &SupabaseBlobStore{
		projectURL: strings.TrimRight(projectURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseBlobStore) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.projectURL, s.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	return s.PublicURL(path), nil
}

// PublicURL builds the public object URL; the bucket is expected to be
// configured public.
func (s *SupabaseBlobStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.projectURL, s.bucket, path)
}

// MemoryBlobStore is the in-memory BlobStore used in tests.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	Saves int
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Save(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = append([]byte(nil), data...)
	s.Saves++
	return "memory://" + path, nil
}

func (s *MemoryBlobStore) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[path]
	return data, ok
}
