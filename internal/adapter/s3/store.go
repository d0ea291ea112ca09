// Package s3 mirrors published reports into an S3-compatible bucket,
// one object per locality and civil day.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/asesor-publico/noticias/internal/config"
	"github.com/asesor-publico/noticias/internal/domain"
)

const contentTypeJSON = "application/json; charset=utf-8"

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store is the remote structured store sink.
type Store struct {
	client   putter
	bucket   string
	basePath string
	logger   *slog.Logger
}

// New creates a Store from the REMOTE_STORE_* settings.
func New(cfg *config.Config, logger *slog.Logger, optFns ...func(*s3.Options)) *Store {
	opts := s3.Options{
		Region:                     cfg.RemoteStoreRegion,
		Credentials:                credentials.NewStaticCredentialsProvider(cfg.RemoteStoreAccessKey, cfg.RemoteStoreSecretKey, ""),
		UsePathStyle:               true,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if cfg.RemoteStoreEndpoint != "" {
		endpoint := strings.TrimSuffix(cfg.RemoteStoreEndpoint, "/"+cfg.RemoteStoreBucket)
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &Store{
		client:   s3.New(opts, optFns...),
		bucket:   cfg.RemoteStoreBucket,
		basePath: strings.Trim(cfg.RemoteStoreBasePath, "/"),
		logger:   logger,
	}
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "remote_store" }

// ObjectKey returns <base>/<country>/<province>/<city-id>/posts/<YYYYMMDD>.json.
func (s *Store) ObjectKey(loc domain.LocalityContext, dateKey string) string {
	return path.Join(s.basePath, loc.Country, loc.Province, loc.ID, "posts", dateKey+".json")
}

// Publish uploads the record under the day's key, replacing any earlier
// upload for the same day.
func (s *Store) Publish(ctx context.Context, loc domain.LocalityContext, record domain.ReportRecord, dateKey string) error {
	data, err := domain.MarshalRecord(record)
	if err != nil {
		return err
	}

	key := s.ObjectKey(loc, dateKey)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Debug("report uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return nil
}
