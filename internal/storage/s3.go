package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/Im-Moazzam/Ticketing-System/internal/config"
	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// S3Store keeps attachments in an S3-compatible bucket (AWS or MinIO).
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a client against the configured endpoint.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

// Store validates the filename and uploads the content under a dated,
// uuid-prefixed object key.
func (s *S3Store) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := SanitizeFileName(filename)
	if name == "" || !AllowedExtension(name) {
		return "", apperrors.NewInvalidAttachment(fmt.Sprintf("attachment type not allowed: %s", filename))
	}

	d := time.Now().UTC()
	key := fmt.Sprintf("attachments/%d/%02d/%02d/%s_%s", d.Year(), d.Month(), d.Day(), uuid.NewString()[:8], name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return key, nil
}

// Open streams the stored object.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, err
	}
	return out.Body, nil
}
