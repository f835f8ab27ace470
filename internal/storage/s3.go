package storage

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iliyamo/cms-backend/internal/config"
)

// objectPutter is the part of *s3.Client used here.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores files in an S3-compatible bucket (AWS, MinIO, Aliyun OSS).
type S3 struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewS3 builds a client from static credentials and an optional custom
// endpoint.
func NewS3(ctx context.Context, c config.Storage) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.S3Region)}
	if c.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.S3AccessKeyID, c.S3SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
		}
		o.UsePathStyle = c.S3UsePathStyle
	})
	return &S3{client: client, bucket: c.S3Bucket, baseURL: publicBaseURL(c)}, nil
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

// publicBaseURL is S3_PUBLIC_BASE_URL when set, otherwise the
// virtual-hosted URL of the bucket on the configured endpoint.
func publicBaseURL(c config.Storage) string {
	if c.S3PublicBaseURL != "" {
		return strings.TrimRight(c.S3PublicBaseURL, "/")
	}
	host := "s3." + c.S3Region + ".amazonaws.com"
	if c.S3Endpoint != "" {
		host = c.S3Endpoint
		if u, err := url.Parse(c.S3Endpoint); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	return "https://" + c.S3Bucket + "." + strings.TrimRight(host, "/")
}
