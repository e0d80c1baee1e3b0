package collective

import "context"

// Aggregator accumulates a scalar locally and combines it across the group
// when synchronised. Each rank owns its own Aggregator over a shared Group.
type Aggregator struct {
	group   *Group
	rank    int
	value   float64
	combine ReduceFn
}

// NewAggregator registers a scalar aggregator for rank, starting at initial.
func NewAggregator(g *Group, rank int, initial float64, combine ReduceFn) *Aggregator {
	return &Aggregator{
		group:   g,
		rank:    rank,
		value:   initial,
		combine: combine,
	}
}

// Update folds v into the local value.
func (a *Aggregator) Update(v float64) {
	acc := []float64{a.value}
	a.combine(acc, []float64{v})
	a.value = acc[0]
}

// Sync blocks until every rank has synchronised and returns the global value.
// The global value also becomes the local value, so later updates fold into
// it.
func (a *Aggregator) Sync(ctx context.Context) (float64, error) {
	out, err := a.group.AllReduce(ctx, a.rank, []float64{a.value}, a.combine)
	if err != nil {
		return 0, err
	}
	a.value = out[0]
	return a.value, nil
}
