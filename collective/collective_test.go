package collective_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/fault"
)

// run executes fn on every rank concurrently and returns each rank's result.
func run(t *testing.T, g *collective.Group, fn func(rank int) ([]float64, error)) [][]float64 {
	t.Helper()
	out := make([][]float64, g.Size())
	errs := make([]error, g.Size())
	var wg sync.WaitGroup
	for rank := 0; rank < g.Size(); rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			out[rank], errs[rank] = fn(rank)
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
	}
	return out
}

func TestAllReduceMax(t *testing.T) {
	g, err := collective.NewGroup(5)
	if err != nil {
		t.Fatal(err)
	}
	widths := []float64{2, 7, 0, 3, 7}
	out := run(t, g, func(rank int) ([]float64, error) {
		// Random arrival order.
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return g.AllReduce(context.Background(), rank, []float64{widths[rank], -widths[rank]}, collective.Max)
	})
	for rank, v := range out {
		if v[0] != 7 || v[1] != 0 {
			t.Errorf("rank %d got %v", rank, v)
		}
	}
}

func TestAllReduceSumIdentical(t *testing.T) {
	g, _ := collective.NewGroup(4)
	vals := []float64{0.1, 0.2, 0.3, 1e16}
	for i := 0; i < 10; i++ {
		out := run(t, g, func(rank int) ([]float64, error) {
			time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
			return g.AllReduce(context.Background(), rank, []float64{vals[rank]}, collective.Sum)
		})
		for rank := 1; rank < len(out); rank++ {
			if out[rank][0] != out[0][0] {
				t.Fatalf("generation %d: rank %d got %v, rank 0 got %v", i, rank, out[rank][0], out[0][0])
			}
		}
	}
}

func TestAggregator(t *testing.T) {
	g, _ := collective.NewGroup(3)
	local := [][]float64{{1, 4, 2}, {}, {9, 3}}
	out := run(t, g, func(rank int) ([]float64, error) {
		agg := collective.NewAggregator(g, rank, 0, collective.Max)
		for _, v := range local[rank] {
			agg.Update(v)
		}
		v, err := agg.Sync(context.Background())
		return []float64{v}, err
	})
	for rank, v := range out {
		if v[0] != 9 {
			t.Errorf("rank %d got %v, want 9", rank, v[0])
		}
	}
}

func TestAllReduceMisuse(t *testing.T) {
	g, _ := collective.NewGroup(2)
	if _, err := g.AllReduce(context.Background(), 2, []float64{1}, collective.Sum); !fault.Is(err, fault.Precondition) {
		t.Errorf("expected precondition violation for rank out of range, got %v", err)
	}
	if _, err := collective.NewGroup(0); !fault.Is(err, fault.Precondition) {
		t.Errorf("expected precondition violation for an empty group, got %v", err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			_, errs[rank] = g.AllReduce(context.Background(), rank, make([]float64, rank+1), collective.Sum)
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		if !fault.Is(err, fault.Precondition) {
			t.Errorf("rank %d: expected precondition violation for mismatched lengths, got %v", rank, err)
		}
	}
}

func TestAllReduceCancel(t *testing.T) {
	g, _ := collective.NewGroup(2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.AllReduce(ctx, 0, []float64{1}, collective.Sum); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if _, err := g.AllReduce(ctx, 1, []float64{1}, collective.Sum); err != context.DeadlineExceeded {
		t.Fatalf("a cancelled context must not contribute, got %v", err)
	}

	// The abandoned contribution is withdrawn, so the next reduction only
	// sees fresh values.
	out := run(t, g, func(rank int) ([]float64, error) {
		return g.AllReduce(context.Background(), rank, []float64{float64(rank + 2)}, collective.Sum)
	})
	for rank, v := range out {
		if v[0] != 5 {
			t.Errorf("rank %d got %v, want 5", rank, v[0])
		}
	}
}
