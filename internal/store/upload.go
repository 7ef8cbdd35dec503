package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
)

const metaSuffix = ".meta.json"

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// NewUploader stores into S3 when a bucket is configured and into the local
// share directory otherwise.
func NewUploader(i *do.Injector) (Uploader, error) {
	cfg := do.MustInvoke[config.Share](i)
	if cfg.Bucket != "" {
		return NewS3Uploader(i)
	}
	return &FileUploader{Dir: cfg.Dir}, nil
}

// FileUploader writes objects under Dir, with metadata in a sidecar file.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("file")
	log.Info("writing", "file", params.Name, "dir", u.Dir)

	if filepath.Base(params.Name) != params.Name {
		return fmt.Errorf("invalid object name %q", params.Name)
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(u.Dir, params.Name), params.Data, 0o644); err != nil {
		return err
	}

	meta, err := json.Marshal(params.Metadata)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(u.Dir, params.Name+metaSuffix), meta, 0o644)
}
