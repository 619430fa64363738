package storage

import (
	"context"
	"io"
)

// PutOptions apply to every upload. An object under an existing path is
// replaced.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// ObjectStore is the object storage collaborator uploads go through.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, data io.Reader, size int64, opts PutOptions) (string, error)
	PublicURL(bucket, path string) string
}
