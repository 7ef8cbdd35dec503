package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/dmorgan81/imagestudio/internal/page"
	"github.com/dmorgan81/imagestudio/internal/store"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const (
	MaxImageBytes = 20 << 20
	maxRedirects  = 5
)

var (
	ErrDisabled        = errors.New("sharing is not configured")
	ErrInvalidImageURL = errors.New("image url is not an allowed https url")

	errTooManyRedirects = errors.New("too many redirects")
)

// FetchError means the provider-hosted image could not be downloaded.
type FetchError struct {
	Reason string
}

func (e *FetchError) Error() string {
	return "fetching image: " + e.Reason
}

// Sharer copies an ephemeral provider image into the object store and
// publishes a share page for it.
type Sharer struct {
	Client      *http.Client
	Uploader    store.Uploader
	Invalidator store.Invalidator
	Templator   *page.Templator
	Config      config.Share
	NewID       func() string
	Now         func() time.Time
}

func NewSharer(i *do.Injector) (*Sharer, error) {
	return &Sharer{
		Client:      do.MustInvoke[*http.Client](i),
		Uploader:    do.MustInvoke[store.Uploader](i),
		Invalidator: do.MustInvoke[store.Invalidator](i),
		Templator:   do.MustInvoke[*page.Templator](i),
		Config:      do.MustInvoke[config.Share](i),
		NewID:       uuid.NewString,
		Now:         time.Now,
	}, nil
}

func (s *Sharer) Enabled() bool {
	return s.Config.Enabled()
}

func (s *Sharer) validate(req *api.ShareRequest) error {
	params := image.NewParams(strings.TrimSpace(req.Prompt))
	params.Size = lo.Ternary(req.Size != "", req.Size, params.Size)
	params.Quality = lo.Ternary(req.Quality != "", req.Quality, params.Quality)
	params.Style = lo.Ternary(req.Style != "", req.Style, params.Style)
	if err := params.Validate(); err != nil {
		return err
	}
	req.Prompt, req.Size, req.Quality, req.Style = params.Prompt, params.Size, params.Quality, params.Style
	req.RevisedPrompt = lo.Ternary(req.RevisedPrompt != "", req.RevisedPrompt, req.Prompt)

	u, err := url.Parse(req.ImageURL)
	if err != nil || !s.allowed(u) {
		return ErrInvalidImageURL
	}
	return nil
}

// allowed reports whether u is an https URL on one of the allowed hosts.
func (s *Sharer) allowed(u *url.URL) bool {
	if u.Scheme != "https" || u.Host == "" {
		return false
	}
	host := u.Hostname()
	return lo.SomeBy(s.Config.AllowedHosts, func(h string) bool {
		return host == h || strings.HasSuffix(host, "."+h)
	})
}

// client follows a redirect only when its target passes the same host check
// as the requested URL.
func (s *Sharer) client() *http.Client {
	c := *lo.Ternary(s.Client != nil, s.Client, http.DefaultClient)
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errTooManyRedirects
		}
		if !s.allowed(req.URL) {
			return ErrInvalidImageURL
		}
		return nil
	}
	return &c
}

func (s *Sharer) Share(ctx context.Context, req api.ShareRequest) (api.ShareResponse, error) {
	if !s.Enabled() {
		return api.ShareResponse{}, ErrDisabled
	}
	if err := s.validate(&req); err != nil {
		return api.ShareResponse{}, err
	}

	id := s.NewID()
	log := log.FromContextOrDiscard(ctx).WithGroup("share").With("id", id)
	log.Info("sharing image")

	data, contentType, err := s.fetch(ctx, req.ImageURL)
	if err != nil {
		return api.ShareResponse{}, err
	}

	rec := Record{
		ID:            id,
		Prompt:        req.Prompt,
		RevisedPrompt: req.RevisedPrompt,
		Size:          string(req.Size),
		Quality:       string(req.Quality),
		Style:         string(req.Style),
		Created:       s.Now(),
	}
	result := api.ShareResponse{
		ID:       id,
		ImageURL: s.Config.PublicURL + "/" + id + ".png",
		PageURL:  s.Config.PublicURL + "/" + id + ".html",
	}

	html, err := s.Templator.Template(ctx, page.Params{
		Image:         result.ImageURL,
		Page:          result.PageURL,
		Prompt:        rec.Prompt,
		RevisedPrompt: rec.RevisedPrompt,
		Size:          rec.Size,
		Quality:       rec.Quality,
		Style:         rec.Style,
	})
	if err != nil {
		return api.ShareResponse{}, err
	}

	metadata := rec.Metadata()
	uploads := []store.UploadParams{
		{Name: id + ".png", Data: data, ContentType: contentType, Metadata: metadata},
		{Name: id + ".html", Data: html, ContentType: "text/html", Metadata: metadata},
	}
	for _, u := range uploads {
		if err := s.Uploader.Upload(ctx, u); err != nil {
			return api.ShareResponse{}, fmt.Errorf("uploading %s: %w", u.Name, err)
		}
	}

	if err := s.Invalidator.Invalidate(ctx, []string{"/" + id + ".png", "/" + id + ".html", "/feed.xml"}); err != nil {
		return api.ShareResponse{}, fmt.Errorf("invalidating: %w", err)
	}

	log.Info("shared image", "page", result.PageURL)
	return result, nil
}

func (s *Sharer) fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.client().Do(req)
	if errors.Is(err, ErrInvalidImageURL) {
		return nil, "", ErrInvalidImageURL
	}
	if err != nil {
		return nil, "", &FetchError{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &FetchError{Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", &FetchError{Reason: fmt.Sprintf("unexpected content type %q", contentType)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, "", &FetchError{Reason: err.Error()}
	}
	if len(data) > MaxImageBytes {
		return nil, "", &FetchError{Reason: "image too large"}
	}
	return data, contentType, nil
}
