package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrNoPrompts = errors.New("no prompts configured")

var Examples = []string{
	"A serene landscape with mountains, a lake, and colorful sunset sky",
	"A cozy reading nook in a treehouse, warm lantern light, rain outside",
	"A futuristic city skyline at dusk with flying trains and neon reflections",
	"A watercolor fox curled up asleep in a field of lavender",
	"An astronaut tending a vegetable garden on the surface of the moon",
	"A steaming bowl of ramen drawn in the style of a vintage travel poster",
}

type Randomizer struct {
	prompts []string
	mu      sync.Mutex
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	return New(lo.Ternary(len(prompts) > 0, prompts, Examples)), nil
}

func New(prompts []string) *Randomizer {
	prompts = lo.Filter(lo.Map(prompts, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}), func(p string, _ int) bool {
		return p != ""
	})
	return &Randomizer{prompts: prompts, rnd: rand.New(rand.NewSource(time.Now().UTC().UnixNano()))}
}

func (r *Randomizer) Randomize(ctx context.Context) (string, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("getting random prompt", "choices", len(r.prompts))

	if len(r.prompts) == 0 {
		return "", ErrNoPrompts
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompts[r.rnd.Intn(len(r.prompts))], nil
}
