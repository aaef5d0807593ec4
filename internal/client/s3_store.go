package client

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/motionhero/api/internal/config"
)

// S3Store implements AssetStore for S3 compatible buckets (AWS, R2, MinIO)
type S3Store struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
	prefix    string
}

// NewS3Store creates a new bucket-backed asset store
func NewS3Store(ctx context.Context, cfg *config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 configuration incomplete: bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		s3Client:  s3Client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		prefix:    cfg.Prefix,
	}, nil
}

// Upload puts the image in the bucket and returns its public URL
func (s *S3Store) Upload(ctx context.Context, name, contentType string, body []byte) (string, error) {
	key := s.objectKey(name)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.PublicURL(key), nil
}

// PublicURL returns the URL the provider fetches the object from
func (s *S3Store) PublicURL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}

// IsConfigured returns true if the client has valid configuration
func (s *S3Store) IsConfigured() bool {
	return s.s3Client != nil && s.bucket != ""
}

func (s *S3Store) objectKey(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return path.Join(s.prefix, uuid.NewString()+ext)
}
