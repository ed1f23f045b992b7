package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/angelmondragon/agridiary/pkg/config"
)

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("object already exists")

// Object describes a stored blob.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// objectAPI is the subset of the S3 client the store calls.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store keeps objects in a single S3 (or S3-compatible) bucket.
type Store struct {
	client objectAPI
	bucket string
}

// New creates a store from the archive configuration using the default AWS credential chain.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func newWithClient(client objectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Bucket() string { return s.bucket }

// Put writes a new object. Existing keys are never overwritten.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string, metadata map[string]string) (Object, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err == nil {
		return Object{}, fmt.Errorf("%s: %w", key, ErrExists)
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("put %s: %w", key, err)
	}
	return s.Head(ctx, key)
}

// Get opens an object for reading. The caller closes the body.
func (s *Store) Get(ctx context.Context, key string) (Object, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Object{}, nil, fmt.Errorf("get %s: %w", key, err)
	}
	return objectFrom(key, out.ContentLength, out.ContentType, out.LastModified), out.Body, nil
}

func (s *Store) Head(ctx context.Context, key string) (Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return Object{}, fmt.Errorf("head %s: %w", key, err)
	}
	return objectFrom(key, out.ContentLength, out.ContentType, out.LastModified), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns every object under prefix sorted by key, following continuation tokens.
func (s *Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			objects = append(objects, listed(obj))
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// ArchiveKey builds "<prefix>/<yyyy>/<mm>/<dd>/<id>-<name>" for an uploaded file.
func ArchiveKey(prefix string, now time.Time, id, filename string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(strings.TrimSpace(filename))
	if name == "" {
		name = "upload.zip"
	}
	return fmt.Sprintf("%s/%s/%s-%s", strings.Trim(prefix, "/"), now.UTC().Format("2006/01/02"), id, name)
}

func listed(obj types.Object) Object {
	return Object{
		Key:          aws.ToString(obj.Key),
		Size:         aws.ToInt64(obj.Size),
		LastModified: aws.ToTime(obj.LastModified),
	}
}

func objectFrom(key string, size *int64, contentType *string, lastModified *time.Time) Object {
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	return Object{Key: key, Size: aws.ToInt64(size), ContentType: aws.ToString(contentType), LastModified: lm}
}
