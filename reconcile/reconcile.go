// Package reconcile agrees on a single feature width across workers.
//
// Workers stream disjoint partitions of the same dataset and cannot know the
// true dimensionality until every partition has reported. Width folds the
// local maximum into a max-aggregator and waits on the group barrier; Pad then
// zero-fills every narrower vector up to the agreed width.
package reconcile

import (
	"context"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
)

// LocalWidth is the largest feature count in c.
func LocalWidth(c *store.Collection) int {
	width := 0
	c.ForEach(func(_ int, s *sample.Labeled) {
		if w := s.X.Width(); w > width {
			width = w
		}
	})
	return width
}

// Width blocks until every worker has contributed its local maximum to agg and
// returns the global maximum width.
func Width(ctx context.Context, agg *collective.Aggregator, c *store.Collection) (int, error) {
	agg.Update(float64(LocalWidth(c)))
	global, err := agg.Sync(ctx)
	if err != nil {
		return 0, err
	}
	return int(global), nil
}

// Pad extends every vector narrower than width with zeros, in place, and
// returns how many vectors were extended. Vectors are never truncated.
func Pad(c *store.Collection, width int) int {
	padded := 0
	c.ForEach(func(_ int, s *sample.Labeled) {
		if s.X.Width() < width {
			s.X.Extend(width)
			padded++
		}
	})
	return padded
}

// Run reconciles the partition of rank within g and returns the global width.
func Run(ctx context.Context, g *collective.Group, rank int, c *store.Collection) (int, error) {
	width, err := Width(ctx, collective.NewAggregator(g, rank, 0, collective.Max), c)
	if err != nil {
		return 0, err
	}
	Pad(c, width)
	return width, nil
}
