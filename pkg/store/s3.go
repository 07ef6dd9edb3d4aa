package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/jellydator/ttlcache/v3"
)

const (
	// DefaultRegion is the default AWS region for public corpus buckets.
	DefaultRegion = "us-east-1"

	defaultFetchCacheTTL = 15 * time.Minute
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store fetches corpus objects from a public S3 bucket.
type S3Store struct {
	log    *slog.Logger
	client S3API
	bucket string
	prefix string

	cache *ttlcache.Cache[string, []byte]
}

// S3StoreConfig holds configuration for creating an S3Store.
type S3StoreConfig struct {
	Logger *slog.Logger
	Bucket string
	Prefix string
	Region string

	// Client overrides the real S3 client, for tests.
	Client S3API
	// FetchCacheTTL bounds how long fetched object bytes are kept. The
	// corpus is immutable, so the TTL only limits memory, not staleness.
	FetchCacheTTL time.Duration
}

func (c *S3StoreConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.FetchCacheTTL == 0 {
		c.FetchCacheTTL = defaultFetchCacheTTL
	}
	return nil
}

// NewS3Store creates an S3Store with anonymous credentials for public
// bucket access. Anonymous credentials keep the SDK from walking the
// credential chain (IAM roles, env vars, etc.) for a bucket that needs
// none of it.
func NewS3Store(cfg S3StoreConfig) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid s3 store config: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = s3.New(s3.Options{
			Region:      cfg.Region,
			Credentials: aws.AnonymousCredentials{},
		})
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, []byte](cfg.FetchCacheTTL),
	)

	return &S3Store{
		log:    cfg.Logger,
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		cache:  cache,
	}, nil
}

// List returns every object key under the configured prefix, with the
// prefix stripped. A listing failure is returned to the caller as-is;
// without a listing no task can be graded, so the caller treats it as
// fatal to the run.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, s.prefix)
			name = strings.TrimPrefix(name, "/")
			if name == "" {
				continue
			}
			names = append(names, name)
		}
	}

	s.log.Debug("listed corpus bucket", "bucket", s.bucket, "prefix", s.prefix, "objects", len(names))
	return names, nil
}

// Fetch returns the bytes of one object, retrying transient failures
// with capped exponential backoff and caching the result. A missing key
// is not retried.
func (s *S3Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if item := s.cache.Get(name); item != nil {
		return item.Value(), nil
	}

	key := name
	if s.prefix != "" {
		key = strings.TrimSuffix(s.prefix, "/") + "/" + name
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMultiplier(2.0),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(15*time.Second),
		backoff.WithRandomizationFactor(0), // deterministic (no jitter)
	)

	var data []byte
	operation := func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				return backoff.Permanent(&FileNotFoundError{Name: name})
			}
			s.log.Debug("corpus fetch failed, retrying", "key", key, "error", err)
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		var nf *FileNotFoundError
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	s.cache.Set(name, data, ttlcache.DefaultTTL)
	return data, nil
}
