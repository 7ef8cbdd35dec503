package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmorgan81/imagestudio/internal/api"
	"github.com/dmorgan81/imagestudio/internal/image"
)

const fallbackMessage = "Failed to generate image"

// APIError is a non-200 answer from the studio server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the studio server's JSON API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (c *Client) Generate(ctx context.Context, prompt string, settings Settings) (image.Result, error) {
	var out image.Result
	err := c.do(ctx, http.MethodPost, "/api/generate-image", api.GenerateRequest{
		Prompt:  prompt,
		Size:    settings.Size,
		Quality: settings.Quality,
		Style:   settings.Style,
	}, &out)
	return out, err
}

func (c *Client) Share(ctx context.Context, req api.ShareRequest) (api.ShareResponse, error) {
	var out api.ShareResponse
	err := c.do(ctx, http.MethodPost, "/api/share", req, &out)
	return out, err
}

func (c *Client) RandomPrompt(ctx context.Context) (string, error) {
	var out api.PromptResponse
	err := c.do(ctx, http.MethodGet, "/api/prompts/random", nil, &out)
	return out.Prompt, err
}

// Fetch downloads the image at url into w.
func (c *Client) Fetch(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching image: status %d", resp.StatusCode)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fallbackMessage
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
