package sample_test

import (
	"testing"

	"github.com/kygx-legend/pyhusky/sample"
)

func TestDenseExtend(t *testing.T) {
	d := sample.NewDense([]float64{1, 2})
	d.Extend(4)
	if d.Width() != 4 {
		t.Fatalf("expected width 4, got %d", d.Width())
	}
	want := []float64{1, 2, 0, 0}
	for i, v := range want {
		if d.At(i) != v {
			t.Errorf("index %d: got %v, want %v", i, d.At(i), v)
		}
	}

	// Extending to a smaller width never truncates.
	d.Extend(1)
	if d.Width() != 4 {
		t.Errorf("vector was truncated to %d", d.Width())
	}
}

func TestSparseSet(t *testing.T) {
	s := sample.New(sample.SparseKind, 5)
	s.Set(3, 3)
	s.Set(1, 1)
	s.Set(3, 4)

	var got []int
	s.Range(func(i int, v float64) { got = append(got, i) })
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected stored indices %v", got)
	}
	if s.At(3) != 4 || s.At(0) != 0 {
		t.Errorf("unexpected values %v %v", s.At(3), s.At(0))
	}
	if dot := s.Dot([]float64{1, 2, 3, 4, 5}); dot != 1*2+4*4 {
		t.Errorf("dot = %v", dot)
	}
}

func TestNewSparseDedup(t *testing.T) {
	s, err := sample.NewSparse(4, []sample.Entry{{Index: 2, Value: 7}, {Index: 0, Value: 1}, {Index: 2, Value: 9}})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", s.Entries)
	}
	if s.At(2) != 7 {
		t.Errorf("first occurrence should win, got %v", s.At(2))
	}

	if _, err := sample.NewSparse(2, []sample.Entry{{Index: 2, Value: 1}}); err == nil {
		t.Error("expected an error for an index outside the width")
	}
}

func TestDenseDot(t *testing.T) {
	d := sample.New(sample.DenseKind, 3)
	d.Set(0, 1)
	d.Set(2, 2)
	// theta may carry an intercept after the weights.
	if dot := d.Dot([]float64{3, 4, 5, 100}); dot != 13 {
		t.Errorf("dot = %v", dot)
	}
}
