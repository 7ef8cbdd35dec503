package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/dmorgan81/imagestudio/internal/share"
	"github.com/dmorgan81/imagestudio/internal/store"
	"github.com/gorilla/feeds"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Generator struct {
	lister  store.Lister
	title   string
	baseURL string
}

func NewGenerator(i *do.Injector) (*Generator, error) {
	cfg := do.MustInvoke[config.Config](i)
	return New(do.MustInvoke[store.Lister](i), cfg.AppName, cfg.Share.PublicURL), nil
}

func New(lister store.Lister, title, baseURL string) *Generator {
	return &Generator{lister: lister, title: title, baseURL: baseURL}
}

func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("feed")
	log.Info("generating rss feed")

	objs, err := g.lister.List(ctx, ".png")
	if err != nil {
		return nil, err
	}

	feed := feeds.Feed{
		Title:       g.title,
		Description: "Images created with DALL-E 3",
		Link:        &feeds.Link{Href: g.baseURL},
		Updated:     time.Now(),
	}
	feed.Items = lo.Map(objs, func(o store.Object, _ int) *feeds.Item {
		rec := share.RecordFromMetadata(o.Metadata)
		id := lo.Ternary(rec.ID != "", rec.ID, strings.TrimSuffix(o.Name, ".png"))
		updated := lo.Ternary(rec.Created.IsZero(), o.Updated, rec.Created)
		return &feeds.Item{
			Id:          id,
			Title:       fmt.Sprintf("%s:%s:%s", rec.Prompt, rec.Size, rec.Style),
			Description: rec.RevisedPrompt,
			Link:        &feeds.Link{Href: g.baseURL + "/" + id + ".html"},
			Created:     updated,
			Updated:     updated,
		}
	})
	log.Info("collected feed items", "count", len(feed.Items))

	feed.Sort(func(a, b *feeds.Item) bool {
		return a.Updated.Before(b.Updated)
	})
	rss, err := feed.ToRss()
	return []byte(rss), err
}
