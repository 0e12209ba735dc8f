package service

import (
	a "bitwise74/bboard/aws"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

const (
	minMultipartSize = 12 << 20
	// S3 refuses DeleteObjects calls with more keys than this
	maxDeleteBatch = 1000
)

// ImageStore keeps the binary contents of listing images
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, keys ...string) error
	URL(key string) string
}

type S3Store struct {
	s3        *a.S3Client
	publicURL string
}

func NewS3Store(c *a.S3Client, publicURL string) *S3Store {
	return &S3Store{
		s3:        c,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:        s.s3.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	var err error
	if size > minMultipartSize {
		uploader := manager.NewUploader(s.s3.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = s.s3.C.PutObject(ctx, input)
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3, %w", key, err)
	}

	return nil
}

func (s *S3Store) Delete(ctx context.Context, keys ...string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}

		resp, err := s.s3.C.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: s.s3.Bucket,
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from s3, %w", err)
		}

		for _, v := range resp.Deleted {
			zap.L().Debug("Deleted item", zap.String("item", aws.ToString(v.Key)))
		}

		if len(resp.Errors) > 0 {
			return fmt.Errorf("failed to delete %d objects from s3, first: %s", len(resp.Errors), aws.ToString(resp.Errors[0].Message))
		}
	}

	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// LocalStore writes images below a directory on disk. The router serves that
// directory under publicURL.
type LocalStore struct {
	root      string
	publicURL string
}

func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &LocalStore{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))

	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("key %q escapes the storage directory", key)
	}

	return p, nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create image directory, %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create image file, %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("failed to write image file, %w", err)
	}

	return f.Close()
}

func (s *LocalStore) Delete(_ context.Context, keys ...string) error {
	var errs []error

	for _, k := range keys {
		p, err := s.path(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *LocalStore) URL(key string) string {
	return s.publicURL + "/" + key
}

// removeObjects deletes stored objects when the rows pointing at them are
// already gone. Failures only leave orphans behind so they're logged.
func removeObjects(ctx context.Context, store ImageStore, keys []string) {
	if store == nil || len(keys) == 0 {
		return
	}

	if err := store.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		zap.L().Error("Failed to clean up stored images", zap.Strings("keys", keys), zap.Error(err))
	} else {
		zap.L().Debug("Cleaned up stored images", zap.Strings("keys", keys))
	}
}
