package param

import "context"

// Fetcher resolves secrets and prompt lists kept outside the environment.
// FetchAll returns every value stored under a path prefix.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
	FetchAll(ctx context.Context, path string) ([]string, error)
}
