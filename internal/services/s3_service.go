package services

import (
	"context"
	"fmt"
	"io"

	"github.com/attestation/backend/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service reads template objects from an S3-compatible bucket
type S3Service struct {
	client *s3.Client
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.TemplateS3Endpoint, cfg.TemplateS3Region, cfg.TemplateS3AccessKeyID, cfg.TemplateS3SecretAccessKey, cfg.TemplateS3UsePathStyle)
	if err != nil {
		return nil, fmt.Errorf("init template S3 client: %w", err)
	}
	return &S3Service{client: client}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if key != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// Download reads a whole object into memory
func (s *S3Service) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// S3TemplateSource fetches the template object on every generation
type S3TemplateSource struct {
	s3     *S3Service
	bucket string
	key    string
}

func (s *S3TemplateSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.s3.Download(ctx, s.bucket, s.key)
	if err != nil {
		return nil, fmt.Errorf("download template s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return data, nil
}
