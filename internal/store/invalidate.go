package store

import (
	"context"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
)

type Invalidator interface {
	Invalidate(context.Context, []string) error
}

func NewInvalidator(i *do.Injector) (Invalidator, error) {
	cfg := do.MustInvoke[config.Share](i)
	if cfg.Distribution != "" {
		return NewCloudFrontInvalidator(i)
	}
	return NoopInvalidator{}, nil
}

// NoopInvalidator is used when nothing caches the stored objects.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(ctx context.Context, paths []string) error {
	log.FromContextOrDiscard(ctx).Debug("skipping invalidation", "paths", paths)
	return nil
}
