package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubS3 serves canned list pages and records uploads. Multipart calls fail
// loudly since small bodies must go through a single PutObject.
type stubS3 struct {
	pages []*s3.ListObjectsV2Output

	listInputs []*s3.ListObjectsV2Input
	putInputs  []*s3.PutObjectInput
	putBodies  []string
}

func (s *stubS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	s.listInputs = append(s.listInputs, params)
	if len(s.pages) == 0 {
		return &s3.ListObjectsV2Output{}, nil
	}
	page := s.pages[0]
	s.pages = s.pages[1:]
	return page, nil
}

func (s *stubS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	s.putInputs = append(s.putInputs, params)
	s.putBodies = append(s.putBodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not expected")
}

func (s *stubS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, fmt.Errorf("multipart upload not expected")
}

func (s *stubS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not expected")
}

func (s *stubS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart upload not expected")
}

func (s *stubS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("stored"))}, nil
}

func (s *stubS3) DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreList_StripsPrefix(t *testing.T) {
	t.Parallel()

	stub := &stubS3{pages: []*s3.ListObjectsV2Output{{
		Contents: []types.Object{
			{Key: aws.String("ci/bundle/sub/b.txt"), Size: aws.Int64(1)},
			{Key: aws.String("ci/bundle/a.zip"), Size: aws.Int64(9)},
		},
	}}}
	store := NewS3Store(stub, "artifacts", "ci")

	entries, err := store.List(context.Background(), "bundle")
	require.NoError(t, err)

	require.Len(t, stub.listInputs, 1)
	assert.Equal(t, "artifacts", aws.ToString(stub.listInputs[0].Bucket))
	assert.Equal(t, "ci/bundle/", aws.ToString(stub.listInputs[0].Prefix))

	require.Len(t, entries, 2)
	assert.Equal(t, "a.zip", entries[0].Key)
	assert.Equal(t, int64(9), entries[0].Size)
	assert.Equal(t, "sub/b.txt", entries[1].Key)
}

func TestS3StoreList_Paginates(t *testing.T) {
	t.Parallel()

	stub := &stubS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("bundle/z.txt"), Size: aws.Int64(1)}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("page-2"),
		},
		{
			Contents: []types.Object{{Key: aws.String("bundle/a.txt"), Size: aws.Int64(2)}},
		},
	}}
	store := NewS3Store(stub, "artifacts", "")

	entries, err := store.List(context.Background(), "bundle")
	require.NoError(t, err)

	require.Len(t, stub.listInputs, 2)
	assert.Equal(t, "page-2", aws.ToString(stub.listInputs[1].ContinuationToken))

	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Key)
	assert.Equal(t, "z.txt", entries[1].Key)
}

func TestS3StorePut_SetsKeyAndChecksum(t *testing.T) {
	t.Parallel()

	stub := &stubS3{}
	store := NewS3Store(stub, "artifacts", "ci")

	entry, err := store.Put(context.Background(), "bundle", "addon-1.0.0.zip", strings.NewReader("zip bytes"))
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("zip bytes"))
	want := hex.EncodeToString(sum[:])

	require.Len(t, stub.putInputs, 1)
	assert.Equal(t, "artifacts", aws.ToString(stub.putInputs[0].Bucket))
	assert.Equal(t, "ci/bundle/addon-1.0.0.zip", aws.ToString(stub.putInputs[0].Key))
	assert.Equal(t, want, stub.putInputs[0].Metadata["checksum"])
	assert.Equal(t, "zip bytes", stub.putBodies[0])

	assert.Equal(t, "addon-1.0.0.zip", entry.Key)
	assert.Equal(t, int64(9), entry.Size)
	assert.Equal(t, want, entry.Checksum)
}
