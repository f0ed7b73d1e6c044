package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// TemplateStore keeps template workbooks and their derived artifacts.
// Get returns an error wrapping ErrNotFound for a missing key.
type TemplateStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// TemplateKey is the store key of a template's workbook bytes.
func TemplateKey(id string) string { return id + ".xlsx" }

// StructureKey is the store key of a template's structural model.
func StructureKey(id string) string { return id + ".structure.json" }

// PlaceholdersKey is the store key of a template's scanned placeholders.
func PlaceholdersKey(id string) string { return id + ".placeholders.json" }

func checkTemplateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return validationf("invalid template id %q", id)
	}
	return nil
}

// LocalTemplateStore keeps artifacts as files in one directory.
type LocalTemplateStore struct {
	Dir string
}

func NewLocalTemplateStore(dir string) *LocalTemplateStore {
	return &LocalTemplateStore{Dir: dir}
}

// Put writes to a temporary file and renames it over the target, so readers
// see either the old or the new content.
func (s *LocalTemplateStore) Put(_ context.Context, key string, data []byte) (err error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(s.Dir, key)); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *LocalTemplateStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// S3Client defines the object operations the S3 store needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3TemplateStore keeps artifacts as objects under a bucket prefix.
type S3TemplateStore struct {
	Client S3Client
	Bucket string
	Prefix string
}

// NewS3TemplateStore creates a store with the given AWS config.
func NewS3TemplateStore(cfg aws.Config, bucket, prefix string) *S3TemplateStore {
	return &S3TemplateStore{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

func (s *S3TemplateStore) objectKey(key string) string {
	return strings.TrimPrefix(path.Join(s.Prefix, key), "/")
}

func (s *S3TemplateStore) Put(ctx context.Context, key string, data []byte) error {
	objectKey := s.objectKey(key)
	slog.Info("Uploading to S3", "bucket", s.Bucket, "key", objectKey, "bytes", len(data))

	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

func (s *S3TemplateStore) Get(ctx context.Context, key string) ([]byte, error) {
	objectKey := s.objectKey(key)
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.Bucket, objectKey, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object %s: %w", objectKey, err)
	}
	return data, nil
}
