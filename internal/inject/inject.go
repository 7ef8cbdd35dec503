package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/imagestudio/internal/config"
	"github.com/dmorgan81/imagestudio/internal/feed"
	"github.com/dmorgan81/imagestudio/internal/handler"
	"github.com/dmorgan81/imagestudio/internal/image"
	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/dmorgan81/imagestudio/internal/page"
	"github.com/dmorgan81/imagestudio/internal/param"
	"github.com/dmorgan81/imagestudio/internal/prompt"
	"github.com/dmorgan81/imagestudio/internal/share"
	"github.com/dmorgan81/imagestudio/internal/store"
	"github.com/samber/do"
)

// Setup registers every service lazily. AWS clients are only built when a
// bucket, distribution or parameter is configured.
func Setup(ctx context.Context, cfg config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[config.Config](injector, cfg)
	do.ProvideValue[config.Share](injector, cfg.Share)
	do.Provide[config.Provider](injector, func(i *do.Injector) (config.Provider, error) {
		provider := cfg.Provider
		if provider.APIKey != "" || provider.APIKeyParam == "" {
			return provider, nil
		}
		key, err := do.MustInvoke[param.Fetcher](i).Fetch(ctx, provider.APIKeyParam)
		if err != nil {
			// Leave the key empty so generation reports the missing configuration.
			log.Error("fetching api key", "param", provider.APIKeyParam, "error", err)
			return provider, nil
		}
		provider.APIKey = key
		return provider, nil
	})

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*http.Client](injector, func(i *do.Injector) (*http.Client, error) {
		return &http.Client{Timeout: cfg.Provider.Timeout}, nil
	})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		if cfg.PromptsParam == "" {
			return nil, nil
		}
		prompts, err := do.MustInvoke[param.Fetcher](i).FetchAll(ctx, cfg.PromptsParam)
		if err != nil {
			log.Error("fetching prompts", "param", cfg.PromptsParam, "error", err)
			return nil, nil
		}
		return prompts, nil
	})

	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[image.Generator](injector, func(i *do.Injector) (image.Generator, error) {
		return image.NewAzureGenerator(do.MustInvoke[*http.Client](i), do.MustInvoke[config.Provider](i)), nil
	})
	do.Provide[store.Uploader](injector, store.NewUploader)
	do.Provide[store.Invalidator](injector, store.NewInvalidator)
	do.Provide[store.Lister](injector, store.NewLister)
	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*share.Sharer](injector, share.NewSharer)
	do.Provide[*feed.Generator](injector, feed.NewGenerator)

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
