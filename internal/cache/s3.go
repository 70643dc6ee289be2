package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// cacheControl keeps cached objects fresh at the CDN/S3 layer for two
// days; the object key already encodes full request identity so longer
// retention is harmless, this just bounds storage churn.
const cacheControl = "max-age=172800"

// S3 is a Provider backed by an S3 bucket. Responses are stored as JSON
// objects under a key prefix. All S3 failures are logged and reported as
// misses or swallowed; the cache must never fail a request.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 cache provider using the default AWS credential
// chain. prefix defaults to "explain-cache/".
func NewS3(ctx context.Context, bucket, prefix string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}
	return NewS3WithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3WithClient creates an S3 cache provider with an existing client.
func NewS3WithClient(client *s3.Client, bucket, prefix string) *S3 {
	if prefix == "" {
		prefix = "explain-cache/"
	}
	return &S3{
		client: client,
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/") + "/",
	}
}

func (c *S3) objectKey(key string) string {
	return c.prefix + key + ".json"
}

func (c *S3) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("s3 cache get failed")
		return nil, nil
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("reading s3 cache object failed")
		return nil, nil
	}
	return data, nil
}

func (c *S3) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(c.bucket),
		Key:          aws.String(c.objectKey(key)),
		Body:         bytes.NewReader(value),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("s3 cache put failed")
	}
	return nil
}
