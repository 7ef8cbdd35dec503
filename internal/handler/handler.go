package handler

import (
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/feed"
	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/prompt"
	"github.com/dmorgan81/imagestudio/internal/share"
	"github.com/samber/do"
)

type Handler struct {
	config     config.Config
	generator  image.Generator
	sharer     *share.Sharer
	feed       *feed.Generator
	randomizer *prompt.Randomizer
}

func NewHandler(i *do.Injector) (*Handler, error) {
	cfg := do.MustInvoke[config.Config](i)
	// The resolved provider may carry a key fetched from parameter store.
	cfg.Provider = do.MustInvoke[config.Provider](i)
	return &Handler{
		config:     cfg,
		generator:  do.MustInvoke[image.Generator](i),
		sharer:     do.MustInvoke[*share.Sharer](i),
		feed:       do.MustInvoke[*feed.Generator](i),
		randomizer: do.MustInvoke[*prompt.Randomizer](i),
	}, nil
}
