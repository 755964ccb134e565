package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

// S3Config holds the settings of an S3-compatible object store
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// s3Storage stores files as objects in one bucket of an S3-compatible store
type s3Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewS3Storage creates a new S3 storage. The client is not dialed until the first request.
func NewS3Storage(cfg S3Config) (*s3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &s3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket with a public read policy if it does not exist
func (s *s3Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, fmt.Sprintf(publicReadPolicy, s.bucket)); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	return nil
}

// Put uploads the content as an object and returns its public URL
func (s *s3Storage) Put(ctx context.Context, folder, id string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	objectName := s.objectName(folder, id)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return s.URL(folder, id), nil
}

// URL returns the public URL of an object
func (s *s3Storage) URL(folder, id string) string {
	return s.publicURL + "/" + (&url.URL{Path: s.objectName(folder, id)}).EscapedPath()
}

func (s *s3Storage) objectName(folder, id string) string {
	if folder == "" {
		return id
	}
	return strings.ReplaceAll(folder, "_", "/") + "/" + id
}
