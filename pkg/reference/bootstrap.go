package reference

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pcj/mobyprogress"
)

// Bootstrap fetches every named library from the provider concurrently and
// returns the resulting Set.  It fails if any library cannot be retrieved;
// a partial Set is never returned.  The first failure to occur is reported;
// it cancels the remaining fetches.  progress may be nil.
func Bootstrap(ctx context.Context, provider Provider, names, namespaces []string, progress mobyprogress.Output) (*Set, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := &fetchProgress{output: progress, total: len(names)}
	reporter.update(false)

	libraries := make([]*Library, len(names))

	var firstErr struct {
		sync.Mutex
		err error
	}

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			data, err := fetch(ctx, provider, name)
			if err != nil {
				firstErr.Lock()
				if firstErr.err == nil {
					firstErr.err = fmt.Errorf("fetching library %q: %w", name, err)
				}
				firstErr.Unlock()
				cancel()
				return
			}
			libraries[i] = NewLibrary(name, data)
			reporter.done()
		}(i, name)
	}
	wg.Wait()

	if firstErr.err != nil {
		return nil, firstErr.err
	}
	reporter.update(true)

	return NewSet(libraries, namespaces), nil
}

func fetch(ctx context.Context, provider Provider, name string) ([]byte, error) {
	in, err := provider.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

// fetchProgress serializes progress updates from the fetch goroutines.
type fetchProgress struct {
	mu      sync.Mutex
	output  mobyprogress.Output
	current int
	total   int
}

func (p *fetchProgress) done() {
	p.mu.Lock()
	p.current++
	p.mu.Unlock()
	p.update(false)
}

func (p *fetchProgress) update(lastUpdate bool) {
	if p.output == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output.WriteProgress(mobyprogress.Progress{
		ID:         "references",
		Action:     "fetching libraries",
		Current:    int64(p.current),
		Total:      int64(p.total),
		Units:      "libraries",
		LastUpdate: lastUpdate,
	})
}
