package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"cleanuphub/internal/domain"
)

// S3Config holds configuration for the S3 file store.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type s3Store struct {
	client *s3.Client
	bucket string
	region string
}

// NewS3Store returns a FileStore that uploads to the configured S3 bucket.
func NewS3Store(config S3Config) domain.FileStore {
	awsCfg := aws.Config{
		Region: config.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			),
		),
	}
	return &s3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: config.Bucket,
		region: config.Region,
	}
}

// Upload stores the file under a per-user random key so uploads never collide
// and a user cannot guess another user's keys.
func (s *s3Store) Upload(ctx context.Context, userID, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), filepath.Ext(filename))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &domain.ExternalServiceError{Service: "s3", Message: err.Error()}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}
