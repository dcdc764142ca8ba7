package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options locates the bucket uploads go to
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS, set for R2/MinIO
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// S3Store keeps files in an S3 compatible bucket
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket not configured")
	}
	s3opts := s3.Options{
		Region: opts.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		),
	}
	if opts.Endpoint != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
		s3opts.UsePathStyle = true
	}
	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
	return &S3Store{
		client:    s3.New(s3opts),
		bucket:    opts.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, dir, name, contentType string, body io.ReadSeeker) (string, error) {
	key, err := firstFree(dir, name, func(key string) (bool, error) {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return true, nil
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	})
	if err != nil {
		return "", fmt.Errorf("check object: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return key, nil
}

// Delete removes the object; S3 treats a missing key as success.
func (s *S3Store) Delete(ctx context.Context, storedPath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedPath),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *S3Store) URL(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	return s.publicURL + "/" + storedPath
}
