package gather

import (
	"context"
	"strings"
	"sync"

	"github.com/inboxpulse/insight-engine/internal/intent"
	"github.com/inboxpulse/insight-engine/internal/observability"
)

// Aggregator resolves a facet list concurrently into one context string.
type Aggregator struct {
	exec *Executor
	log  *observability.Logger
}

// NewAggregator creates an aggregator over the given executor.
func NewAggregator(exec *Executor, log *observability.Logger) *Aggregator {
	if log == nil {
		log = observability.DefaultLogger()
	}
	return &Aggregator{exec: exec, log: log.WithComponent("gather")}
}

// Gather fans the facets out, waits for all of them, and joins the
// non-empty blocks with a blank line in facet order. One facet blowing up
// only blanks its own block. The result is never empty: when every facet
// comes back blank the fixed fallback paragraph is returned.
func (a *Aggregator) Gather(ctx context.Context, facets []intent.Facet) string {
	if len(facets) == 0 {
		a.log.Info().Int("facets_total", 0).Int("facets_non_empty", 0).
			Msg("gathered context")
		return FallbackParagraph
	}

	blocks := make([]string, len(facets))
	var wg sync.WaitGroup

	for i, f := range facets {
		wg.Add(1)
		go func(i int, f intent.Facet) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.log.Error().Interface("panic", r).Str("kind", string(f.Kind)).
						Msg("facet resolution panicked")
					blocks[i] = ""
				}
			}()
			blocks[i] = a.exec.Resolve(ctx, f)
		}(i, f)
	}

	wg.Wait()

	var nonEmpty []string
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			nonEmpty = append(nonEmpty, b)
		}
	}

	a.log.Info().Int("facets_total", len(facets)).Int("facets_non_empty", len(nonEmpty)).
		Msg("gathered context")

	if len(nonEmpty) == 0 {
		return FallbackParagraph
	}

	return strings.Join(nonEmpty, "\n\n")
}
