// Package collective implements blocking reductions across a fixed set of
// workers.
//
// A Group has a fixed size. Every collective operation is a rendezvous: each
// rank contributes a vector and blocks until all ranks have contributed, after
// which every rank receives the same combined vector. Contributions are folded
// in rank order, so floating point results are bit-identical on every rank and
// independent of the order in which workers arrive.
package collective

import (
	"context"
	"sync"

	"github.com/kygx-legend/pyhusky/fault"
)

// ReduceFn folds v into acc in place. It must be commutative and associative.
type ReduceFn func(acc, v []float64)

// Max keeps the element-wise maximum.
func Max(acc, v []float64) {
	for i := range acc {
		if v[i] > acc[i] {
			acc[i] = v[i]
		}
	}
}

// Min keeps the element-wise minimum.
func Min(acc, v []float64) {
	for i := range acc {
		if v[i] < acc[i] {
			acc[i] = v[i]
		}
	}
}

// Sum adds element-wise.
func Sum(acc, v []float64) {
	for i := range acc {
		acc[i] += v[i]
	}
}

type generation struct {
	contrib [][]float64
	arrived int
	fn      ReduceFn
	done    chan struct{}
	result  []float64
	err     error
}

func newGeneration(size int) *generation {
	return &generation{
		contrib: make([][]float64, size),
		done:    make(chan struct{}),
	}
}

// Group is a fixed set of ranks 0..Size()-1 that reduce together. It is safe
// for concurrent use; each rank must be driven by a single goroutine.
type Group struct {
	size int

	mu  sync.Mutex
	cur *generation
}

// NewGroup creates a group of size ranks.
func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fault.Errorf(fault.Precondition, "collective.group", "group size must be positive, got %d", size)
	}
	return &Group{size: size, cur: newGeneration(size)}, nil
}

// Size is the number of ranks in the group.
func (g *Group) Size() int {
	return g.size
}

// AllReduce contributes data for rank and blocks until every rank of the group
// has contributed, then returns the reduction of all contributions. All ranks
// must pass vectors of the same length and the same fn; the fn of the first
// rank to arrive is used. data is not modified.
//
// A cancelled ctx releases the calling rank and withdraws its contribution,
// unless the reduction already completed, in which case the result is
// returned. After every rank has given up the group is ready for a fresh
// reduction.
func (g *Group) AllReduce(ctx context.Context, rank int, data []float64, fn ReduceFn) ([]float64, error) {
	if rank < 0 || rank >= g.size {
		return nil, fault.Errorf(fault.Precondition, "collective.allreduce", "rank %d outside group of %d", rank, g.size)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contribution := make([]float64, len(data))
	copy(contribution, data)

	g.mu.Lock()
	gen := g.cur
	if gen.contrib[rank] != nil {
		g.mu.Unlock()
		return nil, fault.Errorf(fault.Precondition, "collective.allreduce", "rank %d contributed twice to one reduction", rank)
	}
	if gen.fn == nil {
		gen.fn = fn
	}
	gen.contrib[rank] = contribution
	gen.arrived++
	if gen.arrived == g.size {
		gen.result, gen.err = fold(gen.contrib, gen.fn)
		close(gen.done)
		g.cur = newGeneration(g.size)
	}
	g.mu.Unlock()

	select {
	case <-gen.done:
	case <-ctx.Done():
		if g.withdraw(gen, rank) {
			return nil, ctx.Err()
		}
	}
	if gen.err != nil {
		return nil, gen.err
	}
	out := make([]float64, len(gen.result))
	copy(out, gen.result)
	return out, nil
}

// withdraw takes back the contribution of rank if gen has not completed and
// reports whether it did.
func (g *Group) withdraw(gen *generation, rank int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-gen.done:
		return false
	default:
	}
	gen.contrib[rank] = nil
	gen.arrived--
	if gen.arrived == 0 {
		gen.fn = nil
	}
	return true
}

func fold(contrib [][]float64, fn ReduceFn) ([]float64, error) {
	acc := make([]float64, len(contrib[0]))
	copy(acc, contrib[0])
	for rank, v := range contrib[1:] {
		if len(v) != len(acc) {
			return nil, fault.Errorf(fault.Precondition, "collective.allreduce",
				"rank %d contributed %d values, rank 0 contributed %d", rank+1, len(v), len(acc))
		}
		fn(acc, v)
	}
	return acc, nil
}
