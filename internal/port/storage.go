package port

import "context"

// ObjectStorage abstracts the object store holding uploaded registration files.
// Uploads happen elsewhere; this backend only hands out time-limited links.
type ObjectStorage interface {
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
