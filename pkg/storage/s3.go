package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/evently-app/evently/internal/errdef"
)

func NewS3Client(logger *slog.Logger, client AWSS3Client, uploader AWSS3Uploader) *S3Client {
	return &S3Client{
		logger:   logger,
		client:   client,
		uploader: uploader,
	}
}

type S3Client struct {
	logger   *slog.Logger
	client   AWSS3Client
	uploader AWSS3Uploader
}

type AWSS3Client interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type AWSS3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

func (s S3Client) Upload(ctx context.Context, bucket string, key string, contentType string, body io.Reader) error {
	// an upload that started after validation should finish even if the client goes away, as the
	// database row referencing it is written right after
	ctx = context.WithoutCancel(ctx)

	s.logger.InfoContext(ctx, "Uploading", "bucket", bucket, "key", key)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("error uploading object to bucket %q using key %q: %v", bucket, key, err)
	}
	return nil
}

func (s S3Client) Delete(ctx context.Context, bucket string, key string) error {
	s.logger.InfoContext(ctx, "Deleting", "bucket", bucket, "key", key)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting object from bucket %q using key %q: %v", bucket, key, err)
	}
	return nil
}

// Download returns the object body and its content type. The caller must close the body.
func (s S3Client) Download(ctx context.Context, bucket string, key string) (io.ReadCloser, string, error) {
	object, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", errdef.NewNotFound("object %q not found in bucket %q", key, bucket)
		}
		return nil, "", fmt.Errorf("error downloading object from bucket %q using key %q: %v", bucket, key, err)
	}

	return object.Body, aws.ToString(object.ContentType), nil
}

// NewS3Store returns a [Store] keeping its objects in the given bucket.
func NewS3Store(client *S3Client, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

type S3Store struct {
	client *S3Client
	bucket string
}

func (s *S3Store) Save(ctx context.Context, key string, contentType string, body io.Reader) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.client.Upload(ctx, s.bucket, key, contentType, body)
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return s.client.Delete(ctx, s.bucket, key)
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := validateKey(key); err != nil {
		return nil, "", err
	}
	return s.client.Download(ctx, s.bucket, key)
}
