// Package s3 stores image blobs in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"photomosaic.app/internal/media"
)

// keyPrefix namespaces every object written by this service.
const keyPrefix = "images/"

var _ media.BlobStore = (*Storage)(nil)

// Client covers the S3 operations Storage needs. Tests substitute a fake.
type Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// Config describes the bucket and how to reach it. ExternalURL is the
// public base clients use to fetch objects (a CDN or the bucket endpoint).
type Config struct {
	Region      string
	Bucket      string
	AccessKeyID string
	SecretKey   string
	Endpoint    string
	ExternalURL string
}

type Storage struct {
	client      Client
	bucket      string
	externalURL string
}

// Option configures Storage construction.
type Option func(*Storage)

// WithClient sets a pre-built client, bypassing AWS config loading.
func WithClient(c Client) Option {
	return func(s *Storage) { s.client = c }
}

// New builds a Storage for the configured bucket. Static credentials are
// optional; without them the default AWS provider chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	s := &Storage{
		bucket:      cfg.Bucket,
		externalURL: strings.TrimSuffix(cfg.ExternalURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		awsOpts := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			awsOpts = append(awsOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			return nil, fmt.Errorf("s3: load aws config: %w", err)
		}
		s.client = s3aws.NewFromConfig(awsCfg, func(o *s3aws.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	}
	if s.externalURL == "" {
		s.externalURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return s, nil
}

// Put implements media.BlobStore.
func (s *Storage) Put(ctx context.Context, id string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(keyPrefix + id),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", id, err)
	}
	return nil
}

// Delete implements media.BlobStore.
func (s *Storage) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(keyPrefix + id),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s: %w", id, err)
	}
	return nil
}

// URL implements media.BlobStore.
func (s *Storage) URL(id string) string {
	return s.externalURL + "/" + keyPrefix + id
}
