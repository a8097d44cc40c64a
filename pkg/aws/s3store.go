package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

var contentTypes = map[string]string{
	".vtt":  "text/vtt",
	".json": "application/json",
}

// S3Store implements the types.ObjectStore interface on S3
type S3Store struct {
	bucket    string
	keyPrefix string
	s3Client  *s3.Client
}

var _ types.ObjectStore = (*S3Store)(nil)

// Get implements types.ObjectStore.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	outPut, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", types.ErrKeyNotFound, s.bucket, s.keyPrefix+key)
		}
		return nil, err
	}
	return outPut.Body, nil
}

// Put implements types.ObjectStore.
func (s *S3Store) Put(ctx context.Context, key string, len uint64, data io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.keyPrefix + key),
		Body:          data,
		ContentLength: aws.Int64(int64(len)),
	}
	if contentType, ok := contentTypes[path.Ext(key)]; ok {
		input.ContentType = aws.String(contentType)
	}
	_, err := s.s3Client.PutObject(ctx, input)
	return err
}

// Has implements types.ObjectStore.
func (s *S3Store) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound recognizes both GetObject's NoSuchKey and the bodiless 404 that
// HeadObject reports.
func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var oe smithy.APIError
	return errors.As(err, &oe) && (oe.ErrorCode() == "NotFound" || oe.ErrorCode() == "NoSuchKey")
}

func NewS3StoreWithClient(client *s3.Client, bucket string, keyPrefix string) *S3Store {
	return &S3Store{s3Client: client, bucket: bucket, keyPrefix: keyPrefix}
}

func NewS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(options *s3.Options) {
		options.DisableLogOutputChecksumValidationSkipped = true
	})
}

// NewS3BucketOpener returns a function opening stores on any bucket with a
// shared client. Lambdas use it for event driven buckets.
func NewS3BucketOpener(client *s3.Client) func(bucket string) types.ObjectStore {
	return func(bucket string) types.ObjectStore {
		return NewS3StoreWithClient(client, bucket, "")
	}
}
