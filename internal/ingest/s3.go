package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/zulandar/signalbox/internal/config"
	"github.com/zulandar/signalbox/internal/store"
)

// defaultExt is used for pulled objects whose key has no extension; scanners
// publish SARIF reports.
const defaultExt = ".sarif"

// ObjectGetter is the part of the S3 client the puller needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Pulled describes a file downloaded from S3.
type Pulled struct {
	LocalFilename    string `json:"local_filename"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
}

// S3Puller downloads report objects into the issues directory.
type S3Puller struct {
	client ObjectGetter
	bucket string
	prefix string
	dir    *Dir
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("ingest: load aws config: %w", err)
	}
	return s3.NewFromConfig(awsConf), nil
}

// NewS3Puller returns a puller reading from cfg.Bucket.
func NewS3Puller(client ObjectGetter, cfg config.S3Config, dir *Dir) (*S3Puller, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("ingest: %w: s3 bucket is not configured", store.ErrInvalid)
	}
	return &S3Puller{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, dir: dir}, nil
}

// Pull downloads key into the issues directory under a random name that
// keeps the key's extension.
func (p *S3Puller) Pull(ctx context.Context, key string) (*Pulled, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("ingest: %w: filename is required", store.ErrInvalid)
	}
	fullKey := key
	if p.prefix != "" {
		fullKey = strings.TrimSuffix(p.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
	}

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		switch {
		case errors.As(err, &noKey):
			return nil, fmt.Errorf("ingest: %w: file '%s' not found in S3 bucket '%s'", store.ErrNotFound, key, p.bucket)
		case errors.As(err, &noBucket):
			return nil, fmt.Errorf("ingest: %w: S3 bucket '%s' not found", store.ErrNotFound, p.bucket)
		}
		return nil, fmt.Errorf("ingest: s3 get %s: %w", fullKey, err)
	}
	defer out.Body.Close()

	ext := path.Ext(key)
	if ext == "" {
		ext = defaultExt
	}
	local := uuid.NewString() + ext

	if err := os.MkdirAll(p.dir.Root(), 0o755); err != nil {
		return nil, fmt.Errorf("ingest: create %s: %w", p.dir.Root(), err)
	}
	dst, err := p.dir.Path(local)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("ingest: create %s: %w", local, err)
	}
	n, err := io.Copy(f, out.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("ingest: write %s: %w", local, err)
	}

	return &Pulled{LocalFilename: local, OriginalFilename: key, FileSize: n}, nil
}
