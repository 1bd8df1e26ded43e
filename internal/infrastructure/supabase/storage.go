package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Compile-time interface check.
var _ domain.FileStorage = (*StorageClient)(nil)

// StorageClient implements domain.FileStorage with Supabase Storage using the service key.
type StorageClient struct {
	*Client
}

// NewStorageClient creates a new storage client.
func NewStorageClient(c *Client) *StorageClient {
	return &StorageClient{Client: c}
}

// Upload writes body to bucket/path, replacing any existing object, and
// returns the object's public URL.
func (s *StorageClient) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) (string, error) {
	headers := map[string]string{
		"Content-Type": contentType,
		"x-upsert":     "true",
	}
	if err := s.do(ctx, http.MethodPost, objectPath(bucket, path), s.serviceKey, headers, body, nil); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return s.PublicURL(bucket, path), nil
}

// Delete removes bucket/path.
func (s *StorageClient) Delete(ctx context.Context, bucket, path string) error {
	payload := map[string][]string{"prefixes": {path}}
	if err := s.doJSON(ctx, http.MethodDelete, "/storage/v1/object/"+bucket, s.serviceKey, payload, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

// SignedURL returns a time-limited download URL for a private object.
func (s *StorageClient) SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error) {
	payload := map[string]string{"expiresIn": strconv.Itoa(int(expiresIn.Seconds()))}
	var resp struct {
		SignedURL string `json:"signedURL"`
	}
	if err := s.doJSON(ctx, http.MethodPost, "/storage/v1/object/sign/"+bucket+"/"+strings.TrimLeft(path, "/"), s.serviceKey, payload, &resp); err != nil {
		return "", fmt.Errorf("sign %s/%s: %w", bucket, path, err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("sign %s/%s: empty signed url", bucket, path)
	}
	return s.baseURL + "/storage/v1" + resp.SignedURL, nil
}

// PublicURL is the CDN URL of an object in a public bucket.
func (s *StorageClient) PublicURL(bucket, path string) string {
	return s.baseURL + "/storage/v1/object/public/" + bucket + "/" + strings.TrimLeft(path, "/")
}

func objectPath(bucket, path string) string {
	return "/storage/v1/object/" + bucket + "/" + strings.TrimLeft(path, "/")
}
