package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxImageBytes caps decoded meal photos.
const MaxImageBytes = 8 << 20

// Image is a decoded "data:<mime>;base64,<data>" URI.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

func DecodeDataURI(uri string) (*Image, error) {
	meta, data, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("invalid base64 image")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	var ext string
	switch contentType {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	default:
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		} else {
			ext = "." + strings.TrimPrefix(contentType, "image/")
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(raw), MaxImageBytes)
	}
	return &Image{Data: raw, ContentType: contentType, Ext: ext}, nil
}

// S3PutAPI is the part of the S3 client the uploader needs.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores objects in one bucket and returns their public URL.
type S3Uploader struct {
	client  S3PutAPI
	bucket  string
	baseURL string
}

func NewS3Uploader(client S3PutAPI, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	if u.baseURL == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key), nil
	}
	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}
