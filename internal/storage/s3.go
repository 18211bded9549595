// Package storage keeps raw regulation text in S3-compatible object storage.
// The database holds derived state only; the original upload lives here so a
// document can be re-segmented and re-indexed without another upload.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/reglens/backend/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return client
}

// DocumentKey is the object key under which a document's raw text is stored.
func DocumentKey(documentID string) string {
	return fmt.Sprintf("documents/%s.txt", documentID)
}

// PutDocumentText uploads the raw text of a document and returns its key.
func PutDocumentText(ctx context.Context, client *s3.Client, documentID string, text []byte) (string, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	key := DocumentKey(documentID)
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(text),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document text to S3: %w", err)
	}
	return key, nil
}

// GetDocumentText downloads the raw text stored under key.
func GetDocumentText(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document text from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read document text: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteDocumentText removes the raw text stored under key. Deleting a key
// that no longer exists is not an error.
func DeleteDocumentText(ctx context.Context, client *s3.Client, key string) error {
	bucket := util.GetEnv("AWS_BUCKET")
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document text from S3: %w", err)
	}
	return nil
}
