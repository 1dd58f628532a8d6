// Package media stores ride images and hands back opaque reference strings.
package media

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// Store accepts an image and returns a stable reference usable as a ride's
// startImage/endImage.
type Store interface {
	Put(ctx context.Context, folder string, contentType string, data []byte) (ref string, err error)
}

// S3Store uploads images to an S3 bucket.
type S3Store struct {
	uploader *s3manager.Uploader
	bucket   string
}

func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Store{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, folder, contentType string, data []byte) (string, error) {
	key := path.Join(folder, uuid.NewString())

	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return key, nil
}

// FakeStore is a test implementation of Store keeping uploads in memory.
type FakeStore struct {
	Objects map[string][]byte
}

func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: make(map[string][]byte)}
}

func (f *FakeStore) Put(_ context.Context, folder, _ string, data []byte) (string, error) {
	key := path.Join(folder, uuid.NewString())
	f.Objects[key] = data
	return key, nil
}
