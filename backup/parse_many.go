package backup

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultParseConcurrency bounds simultaneous file parses. Parsing is
// I/O heavy, so this stays low regardless of core count.
const defaultParseConcurrency = 4

// ParseMany parses several backup files concurrently, keyed by path.
// The map holds an entry for every path that started, including
// partial results from failed parses. The first fatal error cancels
// parses that have not begun and is returned wrapped with its path.
func (p *Parser) ParseMany(ctx context.Context, paths []string, concurrency int) (map[string]*ParseResult, error) {
	if concurrency <= 0 {
		concurrency = defaultParseConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	results := make(map[string]*ParseResult, len(paths))

	for _, path := range paths {
		path := path
		g.Go(func() error {
			res, err := p.Parse(ctx, path)
			mu.Lock()
			results[path] = res
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}

	return results, g.Wait()
}
