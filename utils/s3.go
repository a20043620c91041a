package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"glowfit/imaging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the part of *s3.Client the storage needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var ErrStorageDisabled = errors.New("object storage not configured")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

type Storage struct {
	client    S3API
	bucket    string
	publicURL string
}

// NewStorage serves uploads from publicURL (a CloudFront domain) when set,
// otherwise from the bucket's virtual-hosted URL.
func NewStorage(client S3API, bucket, region, publicURL string) *Storage {
	if publicURL == "" && bucket != "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &Storage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Storage) Enabled() bool { return s != nil && s.client != nil && s.bucket != "" }

// Upload stores data under prefix/<uuid>.<ext> and returns its public URL.
func (s *Storage) Upload(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), extensions[contentType])
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// UploadDataURI decodes a "data:image/...;base64," string and uploads it.
func (s *Storage) UploadDataURI(ctx context.Context, prefix, dataURI string, maxBytes int64) (string, error) {
	data, contentType, err := imaging.DecodeDataURI(dataURI, maxBytes)
	if err != nil {
		return "", err
	}
	return s.Upload(ctx, prefix, data, contentType)
}

// Delete removes an object previously returned by Upload. URLs from other
// hosts are ignored.
func (s *Storage) Delete(ctx context.Context, url string) error {
	if !s.Enabled() || url == "" || !strings.HasPrefix(url, s.publicURL+"/") {
		return nil
	}
	key := strings.TrimPrefix(url, s.publicURL+"/")
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete from s3: %w", err)
	}
	return nil
}
