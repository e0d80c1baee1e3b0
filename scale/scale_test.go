package scale_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/scale"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
	"gonum.org/v1/gonum/stat"
)

func dense(part int, rows ...[]float64) *store.Collection {
	c := store.NewCollection("lr", part)
	for _, r := range rows {
		c.Append(sample.Labeled{X: sample.NewDense(r)})
	}
	return c
}

func column(c *store.Collection, i int) []float64 {
	var col []float64
	c.ForEach(func(_ int, s *sample.Labeled) {
		col = append(col, s.X.At(i))
	})
	return col
}

func TestMinMax(t *testing.T) {
	g, _ := collective.NewGroup(1)
	c := dense(0, []float64{1, 5, -2}, []float64{3, 5, 2}, []float64{2, 5, 0})
	if err := scale.NewLinear(3, sample.DenseKind, g, 0).FitTransform(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{0, 1, 0.5}, {0, 0, 0}, {0, 1, 0.5}}
	for i, w := range want {
		got := column(c, i)
		for k := range w {
			if math.Abs(got[k]-w[k]) > 1e-12 {
				t.Errorf("column %d: got %v, want %v", i, got, w)
				break
			}
		}
	}
	if m := stat.Mean(column(c, 0), nil); math.Abs(m-0.5) > 1e-12 {
		t.Errorf("expected mean 0.5, got %v", m)
	}
}

func TestGlobalStatistics(t *testing.T) {
	g, _ := collective.NewGroup(2)
	parts := []*store.Collection{
		dense(0, []float64{0}, []float64{2}),
		dense(1, []float64{4}),
	}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for rank, c := range parts {
		wg.Add(1)
		go func(rank int, c *store.Collection) {
			defer wg.Done()
			errs[rank] = scale.NewLinear(1, sample.DenseKind, g, rank).FitTransform(context.Background(), c)
		}(rank, c)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	got := append(column(parts[0], 0), column(parts[1], 0)...)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMaxAbs(t *testing.T) {
	g, _ := collective.NewGroup(1)
	c := store.NewCollection("lr", 0)
	a, _ := sample.NewSparse(3, []sample.Entry{{Index: 0, Value: -4}, {Index: 2, Value: 1}})
	b, _ := sample.NewSparse(3, []sample.Entry{{Index: 0, Value: 2}})
	c.Append(sample.Labeled{X: a})
	c.Append(sample.Labeled{X: b})
	if err := scale.NewLinear(3, sample.SparseKind, g, 0).FitTransform(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if a.At(0) != -1 || a.At(2) != 1 || b.At(0) != 0.5 {
		t.Errorf("unexpected scaling %v %v", a, b)
	}
	if len(b.Entries) != 1 || b.At(1) != 0 {
		t.Errorf("implicit zeros must stay implicit")
	}
}

func TestTransformBeforeFit(t *testing.T) {
	g, _ := collective.NewGroup(1)
	if err := scale.NewLinear(1, sample.DenseKind, g, 0).Transform(dense(0, []float64{1})); err == nil {
		t.Fatal("expected an error")
	}
}
