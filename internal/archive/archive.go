// Package archive writes raw competitor snapshots to S3 so refreshes can be
// replayed or audited outside the database.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/rate-intel/internal/domain"
)

// PutObjectAPI is the slice of the S3 client the archive uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config contains configuration for the S3 archive
type Config struct {
	Bucket     string
	Prefix     string // e.g. "competitor-rates"
	Region     string
	AWSProfile string
	Compress   bool
}

// S3Archive stores snapshots as JSON objects under
// <prefix>/<propertyId>/<collectedAt>.json.
type S3Archive struct {
	client   PutObjectAPI
	bucket   string
	prefix   string
	compress bool
}

// NewS3Archive loads the default AWS credential chain and builds an archive.
func NewS3Archive(ctx context.Context, cfg Config) (*S3Archive, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AWSProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.AWSProfile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return New(s3.NewFromConfig(awsCfg), cfg), nil
}

// New builds an archive over an existing client.
func New(client PutObjectAPI, cfg Config) *S3Archive {
	return &S3Archive{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		compress: cfg.Compress,
	}
}

type snapshot struct {
	PropertyID   string                         `json:"property_id"`
	CollectedAt  time.Time                      `json:"collected_at"`
	Observations []domain.CompetitorObservation `json:"observations"`
}

// Key returns the object key for a snapshot.
func (a *S3Archive) Key(propertyID string, collectedAt time.Time) string {
	name := collectedAt.UTC().Format("20060102T150405.000Z") + ".json"
	if a.compress {
		name += ".gz"
	}
	return path.Join(a.prefix, propertyID, name)
}

// Archive uploads one snapshot and returns its key.
func (a *S3Archive) Archive(ctx context.Context, propertyID string, collectedAt time.Time, obs []domain.CompetitorObservation) (string, error) {
	data, err := json.Marshal(snapshot{
		PropertyID:   propertyID,
		CollectedAt:  collectedAt.UTC(),
		Observations: obs,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(propertyID, collectedAt)),
		ContentType: aws.String("application/json"),
	}

	if a.compress {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return "", fmt.Errorf("failed to compress snapshot: %w", err)
		}
		if err := gz.Close(); err != nil {
			return "", fmt.Errorf("failed to compress snapshot: %w", err)
		}
		data = buf.Bytes()
		input.ContentEncoding = aws.String("gzip")
	}
	input.Body = bytes.NewReader(data)

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", a.bucket, *input.Key, err)
	}
	return *input.Key, nil
}
