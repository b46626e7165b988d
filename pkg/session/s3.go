package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3ExpiresKey is the user metadata key carrying the RFC 3339 expiry.
const s3ExpiresKey = "expires-at"

// S3Store keeps each session payload in its own S3 object.
// Expiry is enforced on read; configure a bucket lifecycle rule on the
// prefix to reclaim abandoned objects.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := session.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "themes/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
	closed bool
}

// NewS3Store creates an S3-backed store.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *S3Store) key(sessionID string) *string {
	return aws.String(s.prefix + sessionID)
}

// Save writes the payload object.
func (s *S3Store) Save(ctx context.Context, sessionID string, data []byte, expiresAt time.Time) error {
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         s.key(sessionID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			s3ExpiresKey: expiresAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the payload object, treating missing or expired objects as absent.
func (s *S3Store) Load(ctx context.Context, sessionID string) ([]byte, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(sessionID),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s: %w", sessionID, err)
	}
	defer out.Body.Close()

	if raw, ok := out.Metadata[s3ExpiresKey]; ok {
		expiresAt, err := time.Parse(time.RFC3339, raw)
		if err == nil && s.now().After(expiresAt) {
			return nil, nil
		}
	}
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", sessionID, err)
	}
	return data, nil
}

// Delete removes the payload object.
func (s *S3Store) Delete(ctx context.Context, sessionID string) error {
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(sessionID),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", sessionID, err)
	}
	return nil
}

// Touch rewrites the object with a new expiry. S3 metadata is immutable,
// so this is a read followed by a write.
func (s *S3Store) Touch(ctx context.Context, sessionID string, expiresAt time.Time) error {
	data, err := s.Load(ctx, sessionID)
	if err != nil || data == nil {
		return err
	}
	return s.Save(ctx, sessionID, data, expiresAt)
}

// Close marks the store closed.
func (s *S3Store) Close() error {
	s.closed = true
	return nil
}
