package report

import (
	"context"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/taxon-lab/linnaeus/pkg/utils/safe"
)

// DirDestination writes reports under a local base directory.
type DirDestination struct {
	baseDir string
}

func NewDirDestination(baseDir string) *DirDestination {
	return &DirDestination{baseDir: baseDir}
}

func (d *DirDestination) Write(ctx context.Context, relPath string, data []byte) error {
	fullPath := filepath.Join(d.baseDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create report directory", goerr.V("path", fullPath))
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write report file", goerr.V("path", fullPath))
	}
	return nil
}

// GCSDestination writes reports as objects in a Cloud Storage bucket.
type GCSDestination struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSDestination creates a destination for gs://<bucketName>/<prefix>.
func NewGCSDestination(ctx context.Context, bucketName, prefix string) (*GCSDestination, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucketName))
	}
	return &GCSDestination{
		bucket: client.Bucket(bucketName),
		prefix: prefix,
	}, nil
}

func (d *GCSDestination) Write(ctx context.Context, relPath string, data []byte) error {
	objName := relPath
	if d.prefix != "" {
		objName = d.prefix + "/" + relPath
	}

	w := d.bucket.Object(objName).NewWriter(ctx)
	w.ContentType = "application/json"
	safe.Write(ctx, w, data)
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to store report object", goerr.V("object", objName))
	}
	return nil
}
