package collector

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricelens/pricewatch/internal/model"
)

// DefaultConcurrency bounds how many platforms are searched at once.
const DefaultConcurrency = 3

// SearchResult is the merged outcome of a multi-platform search. Failures
// lists platforms that returned nothing, keyed by platform name.
type SearchResult struct {
	Records  []model.ProductRecord
	Failures map[string]error
}

// SearchAll fans a query out to every collector concurrently and merges
// the listings. A platform failure degrades the result instead of failing
// it; an error is returned only when every platform fails.
func SearchAll(ctx context.Context, collectors []*Collector, query string, limit, concurrency int) (*SearchResult, error) {
	if len(collectors) == 0 {
		return nil, eris.New("collector: no platforms configured")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	result := &SearchResult{Failures: map[string]error{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, c := range collectors {
		c := c
		g.Go(func() error {
			records, err := c.Search(ctx, query, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[c.Platform().Name()] = err
				zap.L().Warn("platform search failed",
					zap.String("platform", c.Platform().Name()),
					zap.Error(err))
				return nil
			}
			result.Records = append(result.Records, records...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(result.Records) == 0 && len(result.Failures) == len(collectors) {
		return nil, eris.Errorf("collector: all %d platforms failed", len(collectors))
	}
	return result, nil
}
