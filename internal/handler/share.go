package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/share"
)

type health struct {
	Status   string `json:"status"`
	Provider bool   `json:"provider"`
	Share    bool   `json:"share"`
}

func (h *Handler) shareImage(r *http.Request) (any, error) {
	if !h.sharer.Enabled() {
		return nil, share.ErrDisabled
	}
	var req api.ShareRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	return h.sharer.Share(r.Context(), req)
}

func (h *Handler) randomPrompt(r *http.Request) (any, error) {
	p, err := h.randomizer.Randomize(r.Context())
	if err != nil {
		return nil, err
	}
	return api.PromptResponse{Prompt: p}, nil
}

func (h *Handler) health(r *http.Request) (any, error) {
	return health{
		Status:   "ok",
		Provider: h.config.Provider.Configured(),
		Share:    h.config.Share.Enabled(),
	}, nil
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	rss, err := h.feed.Generate(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write(rss)
}
