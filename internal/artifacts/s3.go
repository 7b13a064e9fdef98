package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is the opt-in alternate byte backend for jobs whose artifacts
// should live in S3-compatible object storage instead of local disk. It
// implements the same ByteStore interface DiskStore does, so Store is
// indifferent to which backend it was built on.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store configures an S3-compatible client. For MinIO, set useSSL to
// false and pass the MinIO endpoint (e.g. "http://localhost:9002"). If
// skipBucketVerification is true, the bucket is assumed to already exist.
func NewS3Store(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL, skipBucketVerification bool) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("artifacts: s3 bucket name is required")
	}

	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		if !useSSL {
			o.EndpointOptions.DisableHTTPS = true
		}
	})

	if !skipBucketVerification {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			if _, createErr := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); createErr != nil {
				return nil, fmt.Errorf("artifacts: s3 bucket %q not accessible and could not create: %w (original: %v)", bucket, createErr, err)
			}
		}
	}

	return &S3Store{client: client, bucket: bucket}, nil
}

// key builds the object key for a job artifact. Unlike the tenant-scoped
// scheme this backend is adapted from, there is no tenant dimension here —
// the job id alone namespaces every object.
func (s *S3Store) key(jobID, objectName string) string {
	return path.Join("jobs", jobID, objectName)
}

func (s *S3Store) Put(ctx context.Context, jobID, objectName string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(jobID, objectName)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("artifacts: s3 put %q: %w", objectName, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, jobID, objectName string) ([]byte, bool) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(jobID, objectName)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if !errors.As(err, &nsk) {
			slog.Warn("artifact s3 read failed", "job_id", jobID, "object", objectName, "error", err)
		}
		return nil, false
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Warn("artifact s3 read body failed", "job_id", jobID, "object", objectName, "error", err)
		return nil, false
	}
	return data, true
}

func (s *S3Store) Delete(ctx context.Context, jobID, objectName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(jobID, objectName)),
	})
	if err != nil {
		return fmt.Errorf("artifacts: s3 delete %q: %w", objectName, err)
	}
	return nil
}
