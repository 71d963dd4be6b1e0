package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// Client stores every fetched page as a JSON object in an S3 bucket
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new archive client and checks the bucket is reachable
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("archive is disabled")
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := client.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.BucketName),
	}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[Archive] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

func newClient(ctx context.Context, cfg *Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible stores (MinIO, B2) expect path-style URLs
			o.UsePathStyle = true
		}
	})

	return &Client{s3Client: s3Client, config: cfg}, nil
}

// ArchivePage uploads records as one JSON array
func (c *Client) ArchivePage(ctx context.Context, runID string, entity quickbooks.Entity, startPosition int, records []json.RawMessage) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	key := c.config.ObjectKey(runID, entity, startPosition)
	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", c.config.BucketName, key, err)
	}

	log.Debugf("[Archive] Stored %d %s records at s3://%s/%s", len(records), entity, c.config.BucketName, key)
	return nil
}
