package storage

import (
	"context"
	"fmt"
	"io"
)

// BlobStore keeps exported result snapshots.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string) (string, error) // fs returns "file://..." for dev
}

// Options selects and configures a BlobStore driver.
type Options struct {
	Driver   string // fs|s3
	BasePath string // fs

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// Open builds the BlobStore named by opts.Driver.
func Open(ctx context.Context, opts Options) (BlobStore, error) {
	switch opts.Driver {
	case "", "fs":
		return NewFSStore(opts.BasePath)
	case "s3", "minio":
		return NewS3Store(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", opts.Driver)
	}
}
