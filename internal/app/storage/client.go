package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"livesync/internal/pkg/logx"
)

// s3Client implements Service against an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
	logger   zerolog.Logger
}

func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	logger := logx.Component("storage")

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load AWS SDK config")
		return nil, errors.Wrap(err, "failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
		logger:   logger,
	}, nil
}

func (c *s3Client) Upload(ctx context.Context, key, mimeType string, body io.Reader, size int64) (string, error) {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        &c.cfg.S3BucketName,
		Key:           &key,
		Body:          body,
		ContentType:   &mimeType,
		ContentLength: &size,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed")
		return "", errors.Wrapf(err, "failed to upload %s", key)
	}

	c.logger.Debug().Str("key", key).Int64("size", size).Msg("Attachment uploaded")

	return c.PublicURL(key), nil
}

// publicBase is the configured public base, or the bucket addressed path-style on
// the endpoint.
func (c *s3Client) publicBase() string {
	base := c.cfg.S3PublicURL
	if base == "" {
		base = strings.TrimRight(c.cfg.S3Endpoint, "/") + "/" + c.cfg.S3BucketName
	}
	return strings.TrimRight(base, "/")
}

// PublicURL joins the public base and key.
func (c *s3Client) PublicURL(key string) string {
	return c.publicBase() + "/" + key
}

// KeyOf is the inverse of PublicURL.
func (c *s3Client) KeyOf(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, c.publicBase()+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (c *s3Client) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(c.s3Client)

	presignInput := &s3.GetObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	}

	resp, err := presignClient.PresignGetObject(ctx, presignInput, s3.WithPresignExpires(duration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to generate presigned URL")
		return "", errors.Wrap(err, "failed to generate presigned URL")
	}

	return resp.URL, nil
}

func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &c.cfg.S3BucketName,
		Key:    &key,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 delete failed")
		return errors.Wrap(err, "failed to delete file from S3")
	}

	return nil
}
