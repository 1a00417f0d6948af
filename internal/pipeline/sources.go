package pipeline

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// LinkSource produces candidate listing links (page monitor, mail watcher).
type LinkSource interface {
	Name() string
	FetchLinks(ctx context.Context) ([]string, error)
}

// CollectLinks runs every source concurrently and merges their links,
// deduplicated, in source order then appearance order. A failing source
// logs and contributes nothing; the others still run.
func CollectLinks(ctx context.Context, sources []LinkSource, timeout time.Duration) []string {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	results := make([][]string, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[%s] collecting links...", src.Name())
			links, err := src.FetchLinks(sctx)
			if err != nil {
				log.Printf("[%s] error: %v", src.Name(), err)
				return nil
			}
			results[i] = links
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	var out []string
	for _, links := range results {
		for _, l := range links {
			if l == "" || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
