package clients

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ClientInterface stores generated documents and exports and hands out download links
type S3ClientInterface interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// S3API is the subset of *s3.Client used here
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Presigner is the subset of *s3.PresignClient used here
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Client wraps the AWS S3 client for one bucket
type S3Client struct {
	svc           S3API
	presignClient S3Presigner
	bucket        string
}

// NewS3Client creates the document bucket client. Path-style addressing keeps
// LocalStack and presigned links working alike.
func NewS3Client(isLocal bool, bucket string) S3ClientInterface {
	svc := s3.NewFromConfig(loadAWSConfig(isLocal), func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3ClientWith(svc, s3.NewPresignClient(svc), bucket)
}

// NewS3ClientWith builds a client from explicit dependencies
func NewS3ClientWith(svc S3API, presigner S3Presigner, bucket string) *S3Client {
	return &S3Client{svc: svc, presignClient: presigner, bucket: bucket}
}

// PutObject uploads a document
func (client *S3Client) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	_, err := client.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// GenerateDownloadURL creates a presigned URL for downloading a file from S3
func (client *S3Client) GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	presignResult, err := client.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(client.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}

	return presignResult.URL, nil
}
