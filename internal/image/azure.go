package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/lo"
)

const maxErrorBody = 1 << 20

type azureImage struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt"`
}

type azureResponse struct {
	Data []azureImage `json:"data"`
}

type azureError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// AzureGenerator calls an Azure OpenAI DALL-E deployment. Each Generate is
// exactly one request; nothing is retried.
type AzureGenerator struct {
	Client   *http.Client
	Provider config.Provider
}

func NewAzureGenerator(client *http.Client, provider config.Provider) *AzureGenerator {
	return &AzureGenerator{Client: client, Provider: provider}
}

func (g *AzureGenerator) endpoint() (string, error) {
	u, err := url.Parse(g.Provider.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing provider endpoint: %w", err)
	}
	u = u.JoinPath("openai", "deployments", g.Provider.Deployment, "images", "generations")
	u.RawQuery = url.Values{"api-version": {g.Provider.APIVersion}}.Encode()
	return u.String(), nil
}

func (g *AzureGenerator) Generate(ctx context.Context, params Params) (Result, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("azure").With(
		"size", params.Size,
		"quality", params.Quality,
		"style", params.Style,
		"deployment", g.Provider.Deployment,
	)

	if err := g.Provider.Validate(); err != nil {
		return Result{}, err
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	params.N = 1

	endpoint, err := g.endpoint()
	if err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", g.Provider.APIKey)

	log.Info("generating image via azure openai")
	resp, err := g.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error("azure openai api error", "status", resp.StatusCode, "body", string(data))

		perr := &ProviderError{StatusCode: resp.StatusCode}
		var body azureError
		if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
			perr.Message = body.Error.Message
		}
		return Result{}, perr
	}

	var out azureResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decoding provider response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return Result{}, ErrNoImage
	}

	img := out.Data[0]
	log.Info("received image via azure openai", "revised", img.RevisedPrompt != "")
	return Result{
		URL:           img.URL,
		RevisedPrompt: lo.Ternary(img.RevisedPrompt != "", img.RevisedPrompt, params.Prompt),
	}, nil
}
