package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

var ErrProviderNotConfigured = errors.New("provider endpoint or api key not configured")

const (
	DefaultAddr       = ":3000"
	DefaultDeployment = "dall-e-3"
	DefaultAPIVersion = "2024-02-01"
	DefaultTimeout    = 2 * time.Minute
	DefaultShareHost  = "blob.core.windows.net"
	DefaultAppName    = "AI Image Studio"
)

// Provider holds what is needed to reach the Azure OpenAI image deployment.
type Provider struct {
	Endpoint    string
	APIKey      string
	APIKeyParam string
	Deployment  string
	APIVersion  string
	Timeout     time.Duration
}

func (p Provider) Configured() bool {
	return p.Endpoint != "" && p.APIKey != ""
}

// Validate reports ErrProviderNotConfigured when the endpoint or key is unset.
func (p Provider) Validate() error {
	if !p.Configured() {
		return ErrProviderNotConfigured
	}
	return nil
}

type Share struct {
	PublicURL    string
	Bucket       string
	Distribution string
	Dir          string
	AllowedHosts []string
}

func (s Share) Enabled() bool {
	return s.PublicURL != ""
}

type Config struct {
	Addr         string
	LogLevel     string
	AppName      string
	CORSOrigins  []string
	RateLimit    float64
	PromptsParam string
	Provider     Provider
	Share        Share
}

// Load builds a Config from getenv, usually os.Getenv. Missing provider
// settings are not an error here; requests report them instead.
func Load(getenv func(string) string) Config {
	get := func(key, fallback string) string {
		v := strings.TrimSpace(getenv(key))
		return lo.Ternary(v != "", v, fallback)
	}

	cfg := Config{
		Addr:         get("ADDR", DefaultAddr),
		LogLevel:     get("LOG_LEVEL", "info"),
		AppName:      get("APP_NAME", DefaultAppName),
		CORSOrigins:  splitList(get("CORS_ORIGINS", "*")),
		PromptsParam: get("PROMPTS_PARAM", ""),
		Provider: Provider{
			Endpoint:    strings.TrimRight(get("AZURE_OPENAI_ENDPOINT", ""), "/"),
			APIKey:      get("AZURE_OPENAI_API_KEY", ""),
			APIKeyParam: get("AZURE_OPENAI_API_KEY_PARAM", ""),
			Deployment:  get("AZURE_OPENAI_DEPLOYMENT", DefaultDeployment),
			APIVersion:  get("AZURE_OPENAI_API_VERSION", DefaultAPIVersion),
			Timeout:     DefaultTimeout,
		},
		Share: Share{
			PublicURL:    strings.TrimRight(get("PUBLIC_URL", ""), "/"),
			Bucket:       get("BUCKET", ""),
			Distribution: get("DISTRIBUTION", ""),
			Dir:          get("SHARE_DIR", "shared"),
			AllowedHosts: splitList(get("SHARE_HOSTS", DefaultShareHost)),
		},
	}

	if d, err := time.ParseDuration(get("PROVIDER_TIMEOUT", "")); err == nil && d > 0 {
		cfg.Provider.Timeout = d
	}
	if r, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", ""), 64); err == nil && r > 0 {
		cfg.RateLimit = r
	}

	return cfg
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Filter(parts, func(p string, _ int) bool {
		return p != ""
	})
}
