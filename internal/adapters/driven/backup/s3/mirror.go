// Package s3 mirrors run archives to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/backup/file"
	"github.com/custodia-labs/wearsync/internal/core/domain"
	"github.com/custodia-labs/wearsync/internal/core/ports/driven"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Ensure Mirror implements the interface.
var _ driven.BackupWriter = (*Mirror)(nil)

// Config configures the mirror.
type Config struct {
	Bucket string

	// Endpoint is the S3-compatible endpoint URL. Empty uses AWS.
	Endpoint string

	Region string
	KeyID  string
	Secret string

	// Prefix is prepended to object keys.
	Prefix string

	// HTTPClient overrides the HTTP client. Optional.
	HTTPClient *http.Client
}

// Mirror uploads archives with PutObject.
type Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// New creates a mirror configured for path-style addressing, which
// S3-compatible stores such as MinIO and Hetzner require.
func New(cfg Config) (*Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", domain.ErrInvalidInput)
	}
	if cfg.KeyID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("%w: s3 credentials are required", domain.ErrInvalidInput)
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.KeyID, cfg.Secret, "",
		),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}
	if cfg.HTTPClient != nil {
		opts.HTTPClient = cfg.HTTPClient
	}

	return &Mirror{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Key returns the object key an archive named name is stored under.
func (m *Mirror) Key(name string) string {
	return path.Join(m.prefix, name+".json")
}

// Write uploads the archive, replacing any object with the same key.
func (m *Mirror) Write(ctx context.Context, name string, archive *domain.Archive) (string, error) {
	data, err := file.Encode(archive)
	if err != nil {
		return "", err
	}

	key := m.Key(name)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", m.bucket, key, err)
	}
	return "s3://" + m.bucket + "/" + key, nil
}
