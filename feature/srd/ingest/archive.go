package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"codex-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archive mirrors raw payloads into object storage, one object per
// document, keyed by entity type and source key. The database row remains
// the authoritative copy; the archive exists for offline inspection and
// replay without hitting the upstream API.
type Archive struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewArchive creates a new raw-payload archive.
func NewArchive(client storage.Client, bucket string, logger *zap.Logger) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check archive bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create archive bucket: %w", err)
	}
	a.logger.Info("Created archive bucket", zap.String("bucket", a.bucket))
	return nil
}

// ObjectName returns the archive key for one raw document.
func ObjectName(entityType, sourceKey string) string {
	return fmt.Sprintf("raw/%s/%s.json", entityType, sourceKey)
}

// Store writes one raw payload into the archive.
func (a *Archive) Store(ctx context.Context, entityType, sourceKey string, payload []byte) error {
	name := ObjectName(entityType, sourceKey)
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	_, err := a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)), opts)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	return nil
}

// ReportName returns the archive key for an exported snapshot report.
func ReportName(name string) string {
	return fmt.Sprintf("reports/%s.json", name)
}

// StoreReport writes a snapshot report into the archive under reports/.
func (a *Archive) StoreReport(ctx context.Context, name string, payload []byte) error {
	object := ReportName(name)
	opts := minio.PutObjectOptions{ContentType: "application/json"}
	_, err := a.client.PutObject(ctx, a.bucket, object, bytes.NewReader(payload), int64(len(payload)), opts)
	if err != nil {
		return fmt.Errorf("archive %s: %w", object, err)
	}
	return nil
}

// Load reads one archived payload back.
func (a *Archive) Load(ctx context.Context, entityType, sourceKey string) ([]byte, error) {
	name := ObjectName(entityType, sourceKey)
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", name, err)
	}
	return data, nil
}
