package helpers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSMediaStore stores media objects in a GCS bucket. The object path doubles
// as the stored-object identifier used for deletion.
type GCSMediaStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSMediaStore(client *storage.Client, bucket string) *GCSMediaStore {
	return &GCSMediaStore{Client: client, Bucket: bucket}
}

// UploadFile uploads a staged temp file under folder and returns the object
// identifier and its public URL.
func (s *GCSMediaStore) UploadFile(ctx context.Context, folder, path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = f.Close() }()

	ext := strings.ToLower(filepath.Ext(path))
	objectPath := filepath.ToSlash(filepath.Join(folder, uuid.NewString()+ext))
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	wc := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, f); err != nil {
		_ = wc.Close()
		return "", "", err
	}
	if err := wc.Close(); err != nil {
		return "", "", err
	}
	return objectPath, PublicURL(s.Bucket, objectPath), nil
}

// Delete removes a stored object by its identifier.
func (s *GCSMediaStore) Delete(ctx context.Context, publicID string) error {
	return s.Client.Bucket(s.Bucket).Object(publicID).Delete(ctx)
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
