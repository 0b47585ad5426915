package artifact

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API the store uses. *s3.Client
// satisfies it.
type S3Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements Store on an S3-compatible backend. Objects live under
// {prefix}/{bundle}/{key}; the SHA-256 checksum is carried as object
// metadata.
type S3Store struct {
	client   S3Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3Store using the given client.
func NewS3Store(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// NewS3StoreFromEnv builds an S3 client from the default AWS configuration
// chain (env, shared config, instance role) and returns a store for the
// given bucket.
func NewS3StoreFromEnv(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *S3Store) objectKey(bundle, key string) string {
	return path.Join(s.prefix, bundle, key)
}

// Put uploads a file. Content is buffered to compute the checksum before the
// upload starts, since the metadata must accompany the request.
func (s *S3Store) Put(ctx context.Context, bundle, key string, reader io.Reader) (Entry, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return Entry{}, fmt.Errorf("read artifact data: %w", err)
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	createdAt := time.Now().UTC()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bundle, key)),
		Body:   bytes.NewReader(data),
		Metadata: map[string]string{
			"checksum":   checksum,
			"created-at": createdAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("upload artifact %q to bundle %q: %w", key, bundle, err)
	}

	return Entry{
		Key:       key,
		Size:      int64(len(data)),
		Checksum:  checksum,
		CreatedAt: createdAt,
	}, nil
}

// Get downloads a stored file.
func (s *S3Store) Get(ctx context.Context, bundle, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bundle, key)),
	})
	if err != nil {
		return nil, fmt.Errorf("get artifact %q from bundle %q: %w", key, bundle, err)
	}
	return out.Body, nil
}

// List pages through the bundle prefix and returns entry metadata.
func (s *S3Store) List(ctx context.Context, bundle string) ([]Entry, error) {
	prefix := s.objectKey(bundle, "") + "/"

	var entries []Entry
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bundle %q: %w", bundle, err)
		}
		for _, obj := range page.Contents {
			entry := Entry{
				Key:  (*obj.Key)[len(prefix):],
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				entry.CreatedAt = obj.LastModified.UTC()
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Delete removes a single object.
func (s *S3Store) Delete(ctx context.Context, bundle, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(bundle, key)),
	})
	if err != nil {
		return fmt.Errorf("delete artifact %q from bundle %q: %w", key, bundle, err)
	}
	return nil
}
