package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore writes files to a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore connects with credentialsJSON when given, otherwise with
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Store(ctx context.Context, data []byte, p Policy) (string, error) {
	obj, err := p.Check(data)
	if err != nil {
		return "", err
	}
	wc := s.client.Bucket(s.bucket).Object(obj.Name).NewWriter(ctx)
	wc.ContentType = obj.ContentType
	if _, err := wc.Write(obj.Data); err != nil {
		wc.Close()
		return "", fmt.Errorf("upload %s: %w", obj.Name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finish upload %s: %w", obj.Name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, obj.Name), nil
}

// Exists reports whether ref is a gs:// reference to an object in this bucket.
func (s *GCSStore) Exists(ctx context.Context, ref string) (bool, error) {
	name, ok := strings.CutPrefix(ref, "gs://"+s.bucket+"/")
	if !ok || name == "" {
		return false, nil
	}
	_, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", ref, err)
	}
	return true, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
