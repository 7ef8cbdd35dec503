package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/log"
)

// generateRequest keeps every field raw so a value of the wrong JSON type
// is reported against that field instead of failing the whole body.
type generateRequest struct {
	Prompt  json.RawMessage `json:"prompt"`
	Size    json.RawMessage `json:"size"`
	Quality json.RawMessage `json:"quality"`
	Style   json.RawMessage `json:"style"`
}

// stringField returns fallback for an absent field and false for a value
// that is not a JSON string. null decodes to "", which no allow-list accepts.
func stringField(raw json.RawMessage, fallback string) (string, bool) {
	if len(raw) == 0 {
		return fallback, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (g generateRequest) prompt() (string, error) {
	p, ok := stringField(g.Prompt, "")
	if !ok || p == "" {
		return "", image.ErrMissingPrompt
	}
	return p, nil
}

func (g generateRequest) params(prompt string) (image.Params, error) {
	params := image.NewParams(prompt)

	size, ok := stringField(g.Size, string(image.DefaultSize))
	if !ok {
		return image.Params{}, &image.InvalidParamError{Param: "size", Value: string(g.Size)}
	}
	quality, ok := stringField(g.Quality, string(image.DefaultQuality))
	if !ok {
		return image.Params{}, &image.InvalidParamError{Param: "quality", Value: string(g.Quality)}
	}
	style, ok := stringField(g.Style, string(image.DefaultStyle))
	if !ok {
		return image.Params{}, &image.InvalidParamError{Param: "style", Value: string(g.Style)}
	}

	params.Size, params.Quality, params.Style = image.Size(size), image.Quality(quality), image.Style(style)
	return params, params.Validate()
}

// generateImage checks, in order, the prompt, the provider configuration
// and the settings before making the single provider call.
func (h *Handler) generateImage(r *http.Request) (any, error) {
	var body generateRequest
	if err := decodeJSON(r, &body); err != nil {
		if errors.Is(err, errBadJSON) {
			// An unreadable body is reported like any other unexpected failure.
			return nil, fmt.Errorf("decoding generate request: %v", err)
		}
		return nil, err
	}

	prompt, err := body.prompt()
	if err != nil {
		return nil, err
	}
	if err := h.config.Provider.Validate(); err != nil {
		return nil, err
	}
	params, err := body.params(prompt)
	if err != nil {
		return nil, err
	}

	log := log.FromContextOrDiscard(r.Context()).WithGroup("generate")
	log.Info("generating image", "size", params.Size, "quality", params.Quality, "style", params.Style)

	result, err := h.generator.Generate(r.Context(), params)
	if err != nil {
		return nil, err
	}
	return result, nil
}
