package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/lstvlab/dicomsync/internal/services"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// clientOptions builds the shared client options, loading a service account
// file when one is configured.
func clientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}

// BucketStore exposes one GCS bucket through the services.ObjectStore
// interface.
type BucketStore struct {
	bucket *storage.BucketHandle
}

// NewBucketStore creates a storage client for the given bucket.
func NewBucketStore(ctx context.Context, bucketName, credentialsFile string) (*BucketStore, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name must be provided to create a storage client")
	}

	client, err := storage.NewClient(ctx, clientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &BucketStore{bucket: client.Bucket(bucketName)}, nil
}

// List returns every object under prefix.
func (s *BucketStore) List(ctx context.Context, prefix string) ([]services.ObjectRef, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var refs []services.ObjectRef
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
		}
		refs = append(refs, services.ObjectRef{Name: attrs.Name, Size: attrs.Size})
	}
	return refs, nil
}

// Exists reports whether an object is present at name.
func (s *BucketStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.bucket.Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat object %s: %w", name, err)
	}
	return true, nil
}

// Upload writes an object only if it doesn't already exist, using a
// conditional write so a racing re-run cannot double-write. Returns false
// when the object was already present.
func (s *BucketStore) Upload(ctx context.Context, name string, r io.Reader, contentType string) (bool, error) {
	writer := s.bucket.Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("Skipping upload, object already exists.", "object", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to write object %s: %w", name, err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("Skipping upload, object already exists.", "object", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to finalize object %s: %w", name, err)
	}
	return true, nil
}

// Read returns the full contents of the object at name.
func (s *BucketStore) Read(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}
	return data, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}
