package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"resume-processor/internal/shared/storage/object"
)

// Options configures the S3 fetcher. Endpoint and static keys target
// S3-compatible stores such as R2 or MinIO.
type Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
	MaxBytes  int64
}

// Store fetches s3://bucket/key references.
type Store struct {
	client   *s3.Client
	prefix   string
	maxBytes int64
}

// New creates a new S3-backed fetcher.
func New(ctx context.Context, opts Options) (*Store, error) {
	region := strings.TrimSpace(opts.Region)
	endpoint := strings.TrimSpace(opts.Endpoint)
	if region == "" && endpoint != "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = object.DefaultMaxBytes
	}
	return &Store{
		client:   client,
		prefix:   normalizePrefix(opts.Prefix),
		maxBytes: maxBytes,
	}, nil
}

// Fetch downloads the object, checking the declared length before reading the body.
func (s *Store) Fetch(ctx context.Context, rawURL string) (object.Blob, error) {
	if err := ctx.Err(); err != nil {
		return object.Blob{}, err
	}

	bucket, key, err := parseURL(rawURL)
	if err != nil {
		return object.Blob{}, err
	}
	objectKey := applyPrefix(s.prefix, key)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return object.Blob{}, fmt.Errorf("%w: s3 object bucket=%s key=%s not found", object.ErrFetchFailed, bucket, objectKey)
		}
		return object.Blob{}, fmt.Errorf("%w: s3 get object bucket=%s key=%s: %v", object.ErrFetchFailed, bucket, objectKey, err)
	}
	defer out.Body.Close()

	if size := aws.ToInt64(out.ContentLength); size > s.maxBytes {
		return object.Blob{}, object.TooLarge(size, s.maxBytes)
	}

	data, err := object.ReadLimited(out.Body, s.maxBytes)
	if err != nil {
		return object.Blob{}, err
	}
	return object.Blob{
		Data:        data,
		ContentType: aws.ToString(out.ContentType),
		Size:        int64(len(data)),
	}, nil
}

func parseURL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%w: invalid s3 url %q", object.ErrFetchFailed, rawURL)
	}
	bucket = u.Host
	key = strings.TrimLeft(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 url %q needs a bucket and key", object.ErrFetchFailed, rawURL)
	}
	return bucket, key, nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.Fetcher = (*Store)(nil)
