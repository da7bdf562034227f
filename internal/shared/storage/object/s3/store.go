package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"resume-ingest/internal/shared/storage/object"
)

// Store implements object.Store using Amazon S3 or an S3-compatible endpoint.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
}

func newStore(client *s3.Client) *Store {
	return &Store{client: client, presign: s3.NewPresignClient(client)}
}

// New creates an S3-backed object store. endpoint is optional and switches the
// client to path-style addressing against an S3-compatible service.
func New(ctx context.Context, region, endpoint string) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client), nil
}

// PresignPut returns a URL the caller can PUT the object body to until
// expires elapses.
func (s *Store) PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	out, err := s.presign.PresignPutObject(ctx, presignInput(bucket, key), func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign put bucket=%s key=%s: %w", bucket, key, err)
	}
	return out.URL, nil
}

// presignInput leaves Content-Length unsigned so browsers may upload any size.
func presignInput(bucket, key string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	}
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, bucket, key string) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	key = strings.TrimLeft(key, "/")
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return object.Object{}, fmt.Errorf("s3 get object bucket=%s key=%s: %w", bucket, key, object.ErrNotFound)
		}
		return object.Object{}, fmt.Errorf("s3 get object bucket=%s key=%s: %w", bucket, key, err)
	}

	return object.Object{
		Body:        out.Body,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
	}, nil
}

func isNotFound(err error) bool {
	var noKey *s3types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}

var _ object.Store = (*Store)(nil)
