// Package api holds the JSON bodies exchanged between the studio server and
// its clients. It must not depend on storage or provider code.
package api

import "github.com/dmorgan81/imagestudio/internal/image"

type GenerateRequest struct {
	Prompt  string        `json:"prompt"`
	Size    image.Size    `json:"size"`
	Quality image.Quality `json:"quality"`
	Style   image.Style   `json:"style"`
}

type ShareRequest struct {
	ImageURL      string        `json:"imageUrl"`
	Prompt        string        `json:"prompt"`
	RevisedPrompt string        `json:"revisedPrompt,omitempty"`
	Size          image.Size    `json:"size,omitempty"`
	Quality       image.Quality `json:"quality,omitempty"`
	Style         image.Style   `json:"style,omitempty"`
}

type ShareResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	PageURL  string `json:"pageUrl"`
}

type PromptResponse struct {
	Prompt string `json:"prompt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
