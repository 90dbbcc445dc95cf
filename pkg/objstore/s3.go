/**
 * @description
 * Address-keyed media storage on S3-compatible object storage. Every account
 * owns a prefix named after its wallet address; listing images live under
 * `{address}/{productID}/{filename}`. Account creation and vendor upgrades
 * provision the prefix with a zero-byte marker so the layout exists before the
 * first upload.
 *
 * @dependencies
 * - github.com/aws/aws-sdk-go-v2: S3 client, config, static credentials.
 */

package objstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Store is the media storage boundary used by the service layer.
type Store interface {
	EnsureUserPrefix(ctx context.Context, address string) error
	PutImage(ctx context.Context, address, productID, filename string, data []byte, contentType string) (string, error)
	DeleteProductImages(ctx context.Context, address, productID string) error
}

// Config carries the S3 connection settings.
type Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// S3Store is the S3 implementation of Store.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewS3Store builds an S3 client from static credentials. Endpoint may point
// at MinIO or any S3-compatible server.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 config load: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// EnsureUserPrefix drops a zero-byte marker under the address prefix. It is
// idempotent; rewriting the marker is harmless.
func (s *S3Store) EnsureUserPrefix(ctx context.Context, address string) error {
	key := strings.ToLower(address) + "/.keep"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return fmt.Errorf("ensure prefix %s: %w", key, err)
	}
	return nil
}

// PutImage uploads a listing image and returns its public URL.
func (s *S3Store) PutImage(ctx context.Context, address, productID, filename string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s", strings.ToLower(address), productID, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put image %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// DeleteProductImages removes everything under a listing's prefix.
func (s *S3Store) DeleteProductImages(ctx context.Context, address, productID string) error {
	prefix := fmt.Sprintf("%s/%s/", strings.ToLower(address), productID)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list prefix %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete prefix %s: %w", prefix, err)
		}
	}
	return nil
}
