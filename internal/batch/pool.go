// Package batch scans many URLs concurrently on a fixed number of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"aegis/internal/models"
)

// ErrNotScanned marks URLs that were never handed to a worker because the
// batch context ended first.
var ErrNotScanned = errors.New("not scanned")

// Scanner is the part of the engine the pool needs.
type Scanner interface {
	Scan(ctx context.Context, rawURL string) (*models.ScanVerdict, error)
}

// Result is the outcome for one input URL.
type Result struct {
	URL     string              `json:"url"`
	Verdict *models.ScanVerdict `json:"verdict,omitempty"`
	Err     error               `json:"-"`
}

type job struct {
	index int
	url   string
}

// Pool runs scans on a bounded set of goroutines.
type Pool struct {
	scanner Scanner
	workers int
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool(scanner Scanner, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{scanner: scanner, workers: workers}
}

// Run scans every URL and returns results in input order. onDone, when not nil,
// is called once per URL as it finishes; calls are serialized.
func (p *Pool) Run(ctx context.Context, urls []string, onDone func(Result)) []Result {
	results := make([]Result, len(urls))
	if len(urls) == 0 {
		return results
	}

	jobs := make(chan job, p.workers*2)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	finish := func(i int, r Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = r
		if onDone != nil {
			onDone(r)
		}
	}

	n := p.workers
	if n > len(urls) {
		n = len(urls)
	}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				v, err := p.scanner.Scan(ctx, j.url)
				finish(j.index, Result{URL: j.url, Verdict: v, Err: err})
			}
		}()
	}

	next := 0
feed:
	for ; next < len(urls); next++ {
		select {
		case jobs <- job{index: next, url: urls[next]}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(urls); i++ {
		finish(i, Result{URL: urls[i], Err: fmt.Errorf("%w: %w", ErrNotScanned, ctx.Err())})
	}
	return results
}
