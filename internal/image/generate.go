package image

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingPrompt = errors.New("prompt is required")
	ErrNoImage       = errors.New("provider returned no image")
)

type Params struct {
	Prompt  string  `json:"prompt"`
	N       int     `json:"n"`
	Size    Size    `json:"size"`
	Quality Quality `json:"quality"`
	Style   Style   `json:"style"`
}

// NewParams returns Params for prompt with the default settings.
func NewParams(prompt string) Params {
	return Params{
		Prompt:  prompt,
		N:       1,
		Size:    DefaultSize,
		Quality: DefaultQuality,
		Style:   DefaultStyle,
	}
}

// Validate checks the prompt and every setting against its allow-list.
func (p Params) Validate() error {
	if p.Prompt == "" {
		return ErrMissingPrompt
	}
	if !p.Size.Valid() {
		return &InvalidParamError{Param: "size", Value: string(p.Size)}
	}
	if !p.Quality.Valid() {
		return &InvalidParamError{Param: "quality", Value: string(p.Quality)}
	}
	if !p.Style.Valid() {
		return &InvalidParamError{Param: "style", Value: string(p.Style)}
	}
	return nil
}

type Result struct {
	URL           string `json:"imageUrl"`
	RevisedPrompt string `json:"revisedPrompt"`
}

type Generator interface {
	Generate(context.Context, Params) (Result, error)
}

// InvalidParamError is returned for a setting outside its allow-list.
type InvalidParamError struct {
	Param string
	Value string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

// ProviderError carries a non-2xx response from the provider. Message is
// empty when the body held no readable error message.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}
