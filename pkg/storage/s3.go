package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"leadmsg/backend/pkg/logger"
	"leadmsg/backend/pkg/resilience"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3-backed gateway.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string
}

// S3Gateway stores attachment objects in an S3 bucket and issues presigned
// GET URLs for time-boxed access.
type S3Gateway struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

// NewS3Gateway creates an S3-backed gateway.
func NewS3Gateway(ctx context.Context, cfg S3Config, log *logger.Logger) (*S3Gateway, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Gateway{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultConfig("s3"), log),
		log:     log,
	}, nil
}

// Upload streams body to the bucket under key.
func (g *S3Gateway) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	err := g.breaker.Execute(func() error {
		_, putErr := g.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(g.bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		})
		return putErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return key, nil
}

// SignedURL issues a presigned GET URL valid for ttl.
func (g *S3Gateway) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	if g.presign == nil {
		return path, nil
	}

	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", path, err)
	}
	return req.URL, nil
}

// Delete removes the object at path. S3 treats deletion of a missing key
// as success, which is what compensation sweeps rely on.
func (g *S3Gateway) Delete(ctx context.Context, path string) error {
	err := g.breaker.Execute(func() error {
		_, delErr := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(path),
		})
		return delErr
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}
