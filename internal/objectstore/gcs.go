// Package objectstore stores uploaded files in Google Cloud Storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// Object is a stored file: its public URL and the key needed to delete it.
type Object struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type bucketHandle interface {
	NewWriter(ctx context.Context, key, contentType string) io.WriteCloser
	Delete(ctx context.Context, key string) error
}

type Store struct {
	bucket        string
	publicBaseURL string
	handle        bucketHandle
	closer        io.Closer
}

// New opens a GCS client. credentialsFile may be empty to use application
// default credentials.
func New(ctx context.Context, bucket, publicBaseURL, credentialsFile string) (*Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("objectstore: bucket is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("objectstore: new client: %w", err)
	}

	return &Store{
		bucket:        bucket,
		publicBaseURL: publicURLBase(publicBaseURL),
		handle:        gcsBucket{bucket: client.Bucket(bucket)},
		closer:        client,
	}, nil
}

func publicURLBase(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return base
}

// Upload writes r under folder with a random name that keeps ext.
func (s *Store) Upload(ctx context.Context, folder, ext, contentType string, r io.Reader) (Object, error) {
	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+strings.ToLower(ext))

	w := s.handle.NewWriter(ctx, key, contentType)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("objectstore: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("objectstore: close %s: %w", key, err)
	}

	return Object{URL: s.publicBaseURL + "/" + s.bucket + "/" + key, Key: key}, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	err := s.handle.Delete(ctx, key)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("objectstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type gcsBucket struct {
	bucket *storage.BucketHandle
}

func (b gcsBucket) NewWriter(ctx context.Context, key, contentType string) io.WriteCloser {
	w := b.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	return w
}

func (b gcsBucket) Delete(ctx context.Context, key string) error {
	return b.bucket.Object(key).Delete(ctx)
}
