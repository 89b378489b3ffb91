package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/gemeos-pipeline/internal/platform/apierr"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// Object is a fully read blob together with the attributes the pipeline uses.
type Object struct {
	Bucket      string
	Name        string
	Data        []byte
	ContentType string
	Size        int64
	Updated     time.Time
}

type BlobStore interface {
	ReadObject(ctx context.Context, bucket, name string) (*Object, error)
	ListNames(ctx context.Context, bucket, prefix string) ([]string, error)
	Close() error
}

type blobStore struct {
	log    *logger.Logger
	client *storage.Client
	mode   ObjectStorageMode
	// Upper bound on a single object read.
	maxBytes int64
}

const defaultMaxObjectBytes = 64 << 20

func NewBlobStore(log *logger.Logger) (BlobStore, error) {
	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	return NewBlobStoreWithConfig(log, cfg)
}

func NewBlobStoreWithConfig(log *logger.Logger, cfg ObjectStorageConfig) (BlobStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	serviceLog := log.With("service", "BlobStore")
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost, "inferred", cfg.Inferred)
	return &blobStore{log: serviceLog, client: client, mode: cfg.Mode, maxBytes: defaultMaxObjectBytes}, nil
}

func newStorageClient(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		// The storage client reads the emulator endpoint from the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadOnly))
	return storage.NewClient(ctx, opts...)
}

func (bs *blobStore) ReadObject(ctx context.Context, bucket, name string) (*Object, error) {
	bucket = strings.TrimSpace(bucket)
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if bucket == "" || name == "" {
		return nil, fmt.Errorf("read object: bucket and name required")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := bs.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, name, apierr.ErrNotFound)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, bs.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, name, err)
	}
	if int64(len(data)) > bs.maxBytes {
		return nil, fmt.Errorf("gs://%s/%s exceeds %d bytes", bucket, name, bs.maxBytes)
	}
	return &Object{
		Bucket:      bucket,
		Name:        name,
		Data:        data,
		ContentType: r.Attrs.ContentType,
		Size:        r.Attrs.Size,
		Updated:     r.Attrs.LastModified,
	}, nil
}

func (bs *blobStore) ListNames(ctx context.Context, bucket, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", bucket, prefix, err)
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *blobStore) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}
