package pyhusky

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/store"
)

// Cluster runs a group of workers in one process over a shared store.
type Cluster struct {
	ID      uuid.UUID
	Workers []*Worker
	Group   *collective.Group
	Store   store.Store
}

// NewCluster creates size workers over s. The options apply to every worker.
func NewCluster(size int, s store.Store, options ...func(*Worker)) (*Cluster, error) {
	g, err := collective.NewGroup(size)
	if err != nil {
		return nil, err
	}
	c := &Cluster{
		ID:      uuid.New(),
		Workers: make([]*Worker, size),
		Group:   g,
		Store:   s,
	}
	for i := range c.Workers {
		c.Workers[i] = NewWorker(i, g, s, options...)
	}
	return c, nil
}

// Run calls fn on every worker concurrently and waits for all of them. When a
// worker fails the context passed to the others is cancelled, which releases
// any worker blocked in a collective operation. The first error is returned.
func (c *Cluster) Run(ctx context.Context, fn func(ctx context.Context, w *Worker) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	log.Printf("cluster %s running %d workers", c.ID, len(c.Workers))
	for _, w := range c.Workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if err := fn(ctx, w); err != nil {
				once.Do(func() {
					first = err
					cancel()
				})
			}
		}(w)
	}
	wg.Wait()
	return first
}
