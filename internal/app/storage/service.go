/*
Package storage uploads message attachments to S3-compatible object storage.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// S3PublicURL is the base of the links sent in attachment messages.
	S3PublicURL string
}

// Enabled reports whether every connection field is set.
func (c ServiceConfig) Enabled() bool {
	return c.S3BucketName != "" && c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// Service defines the public interface for the file storage service.
type Service interface {
	// Upload stores body under key and returns the public URL of the object.
	Upload(ctx context.Context, key, mimeType string, body io.Reader, size int64) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// KeyOf returns the key of an object from the URL Upload returned for it.
	KeyOf(publicURL string) (string, bool)
}

// NewService returns the S3 implementation of Service.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	return newS3Client(ctx, cfg)
}
