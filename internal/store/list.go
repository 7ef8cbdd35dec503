package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Object struct {
	Name     string
	Metadata map[string]string
	Updated  time.Time
}

// Lister returns the stored objects whose names end with suffix.
type Lister interface {
	List(ctx context.Context, suffix string) ([]Object, error)
}

func NewLister(i *do.Injector) (Lister, error) {
	cfg := do.MustInvoke[config.Share](i)
	if cfg.Bucket != "" {
		return NewS3Lister(i)
	}
	return &FileLister{Dir: cfg.Dir}, nil
}

type FileLister struct {
	Dir string
}

func (l *FileLister) List(ctx context.Context, suffix string) ([]Object, error) {
	entries, err := os.ReadDir(l.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries = lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), suffix) && !strings.HasSuffix(e.Name(), metaSuffix)
	})

	objs := make([]Object, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		obj := Object{Name: e.Name(), Updated: info.ModTime()}

		meta, err := os.ReadFile(filepath.Join(l.Dir, e.Name()+metaSuffix))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &obj.Metadata); err != nil {
				return nil, err
			}
		}
		objs = append(objs, obj)
	}
	return objs, nil
}
