// Package storage keeps uploaded files in S3 or an S3-compatible endpoint.
package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	// Name is recorded in portal_file.storage.
	Name = "s3"

	PresignTTL = 15 * time.Minute
)

var ErrTooLarge = errors.New("file exceeds the upload size limit")

// ObjectAPI is the subset of *s3.Client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures the S3 client.
type Options struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	MaxUploadBytes  int64
}

// Object is the outcome of an upload.
type Object struct {
	Key            string
	Size           int64
	ChecksumMD5    string
	ChecksumSHA256 string
}

type S3Storage struct {
	client    ObjectAPI
	presigner Presigner
	bucket    string
	region    string
	maxBytes  int64
	now       func() time.Time
}

// New builds an S3Storage from the default AWS credential chain, or from
// static keys when both are set. A custom endpoint switches to path-style
// addressing for MinIO and other S3-compatible servers.
func New(ctx context.Context, opts Options) (*S3Storage, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, s3.NewPresignClient(client), opts), nil
}

// NewWithClient wires explicit clients, mainly for tests.
func NewWithClient(client ObjectAPI, presigner Presigner, opts Options) *S3Storage {
	return &S3Storage{
		client:    client,
		presigner: presigner,
		bucket:    opts.Bucket,
		region:    opts.Region,
		maxBytes:  opts.MaxUploadBytes,
		now:       time.Now,
	}
}

func (s *S3Storage) Bucket() string { return s.bucket }
func (s *S3Storage) Region() string { return s.region }

// NewKey returns uploads/<yyyy>/<mm>/<uuid><ext>.
func (s *S3Storage) NewKey(filename string) string {
	now := s.now().UTC()
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.New(), ext)
}

// Upload stores body under key. Seekable bodies are hashed in one pass and
// rewound, anything else is buffered.
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*Object, error) {
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		limit := s.maxBytes
		if limit <= 0 {
			limit = 1 << 62
		}
		buf, err := io.ReadAll(io.LimitReader(body, limit+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		seeker = bytes.NewReader(buf)
	}

	md5sum := md5.New()
	shasum := sha256.New()
	size, err := io.Copy(io.MultiWriter(md5sum, shasum), seeker)
	if err != nil {
		return nil, fmt.Errorf("failed to hash upload: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, ErrTooLarge
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          seeker,
		ContentLength: aws.Int64(size),
		ContentMD5:    aws.String(base64.StdEncoding.EncodeToString(md5sum.Sum(nil))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to s3: %w", err)
	}

	return &Object{
		Key:            key,
		Size:           size,
		ChecksumMD5:    hex.EncodeToString(md5sum.Sum(nil)),
		ChecksumSHA256: hex.EncodeToString(shasum.Sum(nil)),
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeleteMany removes keys in batches of 1000, the S3 limit per request.
func (s *S3Storage) DeleteMany(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// PresignGet returns a GET URL valid for PresignTTL.
func (s *S3Storage) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, s.now().Add(PresignTTL), nil
}
