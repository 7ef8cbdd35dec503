package page

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"sync"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
)

//go:embed assets/share.html
var shareTmpl string

type Params struct {
	AppName       string
	AppURL        string
	Image         string
	Page          string
	Prompt        string
	RevisedPrompt string
	Size          string
	Quality       string
	Style         string
}

// embed is the Farcaster Mini App embed carried in the fc:miniapp meta tag.
type embed struct {
	Version  string      `json:"version"`
	ImageURL string      `json:"imageUrl"`
	Button   embedButton `json:"button"`
}

type embedButton struct {
	Title  string      `json:"title"`
	Action embedAction `json:"action"`
}

type embedAction struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (p Params) Embed() (string, error) {
	data, err := json.Marshal(embed{
		Version:  "1",
		ImageURL: p.Image,
		Button: embedButton{
			Title: "Create your own",
			Action: embedAction{
				Type: "launch_miniapp",
				Name: p.AppName,
				URL:  p.AppURL,
			},
		},
	})
	return string(data), err
}

type Templator struct {
	appName string
	appURL  string
	tmpl    *template.Template
	once    sync.Once
}

func NewTemplator(i *do.Injector) (*Templator, error) {
	cfg := do.MustInvoke[config.Config](i)
	return &Templator{appName: cfg.AppName, appURL: cfg.Share.PublicURL}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("share").Parse(shareTmpl))
	})

	if params.AppName == "" {
		params.AppName = g.appName
	}
	if params.AppURL == "" {
		params.AppURL = g.appURL
	}

	log := log.FromContextOrDiscard(ctx).WithGroup("templator")
	log.Info("generating page", "page", params.Page)

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
