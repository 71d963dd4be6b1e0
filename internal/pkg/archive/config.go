package archive

import (
	"errors"
	"fmt"

	"github.com/ManuelReschke/QBSync/internal/pkg/env"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// Config holds raw page archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("ARCHIVE_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("ARCHIVE_S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("ARCHIVE_S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("ARCHIVE_S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("ARCHIVE_S3_ENDPOINT_URL", ""),
		Prefix:          env.GetEnv("ARCHIVE_S3_PREFIX", "raw"),
		Enabled:         env.GetEnvBool("ARCHIVE_ENABLED", false),
	}

	// Validate required fields if the archive is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("ARCHIVE_S3_ACCESS_KEY_ID is required when the archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("ARCHIVE_S3_SECRET_ACCESS_KEY is required when the archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("ARCHIVE_S3_BUCKET_NAME is required when the archive is enabled")
		}
	}

	return config, nil
}

// ObjectKey returns the key of one archived page.
// Format: <prefix>/<run>/<Entity>/<start position, zero padded>.json
func (c *Config) ObjectKey(runID string, entity quickbooks.Entity, startPosition int) string {
	if runID == "" {
		runID = "adhoc"
	}
	return fmt.Sprintf("%s/%s/%s/%08d.json", c.Prefix, runID, entity, startPosition)
}
