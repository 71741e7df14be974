package port

import (
	"context"
	"io"
)

// UploadInput describes one attachment object to store. Metadata entries are
// persisted with the object so an operator inspecting the bucket can trace a
// photo back to its record and uploader without the database.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	Metadata    map[string]string
}

// UploadOutput is the storage location of a stored attachment.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage stores attachment binaries. Attachment downloads are served
// by presigned URL; the service never proxies object bytes.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
