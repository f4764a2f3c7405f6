package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
	body string
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	raw, _ := io.ReadAll(params.Body)
	m.body = string(raw)
	args := m.Called(aws.ToString(params.Key), aws.ToInt64(params.ContentLength), aws.ToString(params.ContentType))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func (m *mockS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	args := m.Called(len(params.Delete.Objects))
	out, _ := args.Get(0).(*s3.DeleteObjectsOutput)
	return out, args.Error(1)
}

type mockPresigner struct {
	mock.Mock
}

func (m *mockPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	args := m.Called(aws.ToString(params.Key), opts.Expires)
	req, _ := args.Get(0).(*v4.PresignedHTTPRequest)
	return req, args.Error(1)
}

func newTestStorage(max int64) (*S3Storage, *mockS3, *mockPresigner) {
	client := &mockS3{}
	presigner := &mockPresigner{}
	s := NewWithClient(client, presigner, Options{Bucket: "portal", Region: "ap-northeast-1", MaxUploadBytes: max})
	s.now = func() time.Time { return time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC) }
	return s, client, presigner
}

func TestNewKey(t *testing.T) {
	s, _, _ := newTestStorage(0)
	key := s.NewKey("Slides.PDF")
	assert.Regexp(t, regexp.MustCompile(`^uploads/2025/03/[0-9a-f-]{36}\.pdf$`), key)

	assert.Regexp(t, regexp.MustCompile(`^uploads/2025/03/[0-9a-f-]{36}$`), s.NewKey("README"))
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name string
		body io.Reader
	}{
		{name: "seekable body", body: strings.NewReader("abc")},
		{name: "plain reader", body: io.MultiReader(strings.NewReader("a"), strings.NewReader("bc"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client, _ := newTestStorage(10)
			client.On("PutObject", "uploads/a.txt", int64(3), "text/plain").Return(nil)

			obj, err := s.Upload(context.Background(), "uploads/a.txt", tt.body, "text/plain")
			require.NoError(t, err)

			assert.Equal(t, "abc", client.body)
			assert.Equal(t, int64(3), obj.Size)
			assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", obj.ChecksumMD5)
			assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", obj.ChecksumSHA256)
			client.AssertExpectations(t)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	s, client, _ := newTestStorage(2)

	_, err := s.Upload(context.Background(), "k", strings.NewReader("abc"), "")
	assert.ErrorIs(t, err, ErrTooLarge)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadFailure(t *testing.T) {
	s, client, _ := newTestStorage(0)
	client.On("PutObject", "k", int64(1), "").Return(errors.New("denied"))

	_, err := s.Upload(context.Background(), "k", strings.NewReader("x"), "")
	assert.EqualError(t, err, "failed to upload to s3: denied")
}

func TestDeleteMany(t *testing.T) {
	s, client, _ := newTestStorage(0)

	keys := make([]string, 1500)
	for i := range keys {
		keys[i] = "k"
	}
	client.On("DeleteObjects", 1000).Return(&s3.DeleteObjectsOutput{}, nil).Once()
	client.On("DeleteObjects", 500).Return(&s3.DeleteObjectsOutput{}, nil).Once()

	require.NoError(t, s.DeleteMany(context.Background(), keys))
	client.AssertExpectations(t)
}

func TestDeleteManyReportsObjectErrors(t *testing.T) {
	s, client, _ := newTestStorage(0)
	client.On("DeleteObjects", 1).Return(&s3.DeleteObjectsOutput{
		Errors: []types.Error{{Key: aws.String("k1"), Message: aws.String("AccessDenied")}},
	}, nil)

	err := s.DeleteMany(context.Background(), []string{"k1"})
	assert.EqualError(t, err, "failed to delete k1: AccessDenied")
}

func TestPresignGet(t *testing.T) {
	s, _, presigner := newTestStorage(0)
	presigner.On("PresignGetObject", "uploads/a.png", PresignTTL).
		Return(&v4.PresignedHTTPRequest{URL: "https://portal.s3.example/uploads/a.png?X-Amz-Signature=x"}, nil)

	url, expires, err := s.PresignGet(context.Background(), "uploads/a.png")
	require.NoError(t, err)
	assert.Contains(t, url, "X-Amz-Signature")
	assert.Equal(t, s.now().Add(15*time.Minute), expires)
}
