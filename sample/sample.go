// Package sample provides labelled feature vectors in dense and sparse form.
package sample

import (
	"fmt"
	"sort"

	"github.com/xtgo/set"
	"gonum.org/v1/gonum/floats"
)

// Kind selects the representation of feature vectors for a model.
type Kind uint8

const (
	// DenseKind stores every feature value.
	DenseKind Kind = iota
	// SparseKind stores only explicitly set features.
	SparseKind
)

func (k Kind) String() string {
	if k == SparseKind {
		return "sparse"
	}
	return "dense"
}

// KindOf returns SparseKind when sparse is set.
func KindOf(sparse bool) Kind {
	if sparse {
		return SparseKind
	}
	return DenseKind
}

// Vector is a feature vector of a fixed width. Indices are zero based.
type Vector interface {
	Kind() Kind
	// Width is the number of features, including implicit zeros.
	Width() int
	At(i int) float64
	Set(i int, v float64)
	// Extend grows the vector to width n; the new features are zero. A vector is
	// never truncated, so an n smaller than the current width is a no-op.
	Extend(n int)
	// Range calls fn for stored features in ascending index order. Dense vectors
	// visit every index.
	Range(fn func(i int, v float64))
	// Dot computes the inner product with the first Width() values of theta.
	Dot(theta []float64) float64
}

// New creates an all-zero vector of the given kind and width.
func New(kind Kind, width int) Vector {
	if kind == SparseKind {
		return &Sparse{N: width}
	}
	return NewDense(make([]float64, width))
}

// Labeled is a training sample.
type Labeled struct {
	X Vector
	Y float64
}

func (l Labeled) String() string {
	vals := make([]float64, l.X.Width())
	l.X.Range(func(i int, v float64) { vals[i] = v })
	return fmt.Sprintf("%v -> %v", vals, l.Y)
}

// Dense is a vector that stores every value.
type Dense struct {
	Values []float64
}

// NewDense wraps values without copying.
func NewDense(values []float64) *Dense {
	return &Dense{Values: values}
}

func (d *Dense) Kind() Kind           { return DenseKind }
func (d *Dense) Width() int           { return len(d.Values) }
func (d *Dense) At(i int) float64     { return d.Values[i] }
func (d *Dense) Set(i int, v float64) { d.Values[i] = v }

func (d *Dense) Extend(n int) {
	if n <= len(d.Values) {
		return
	}
	d.Values = append(d.Values, make([]float64, n-len(d.Values))...)
}

func (d *Dense) Range(fn func(i int, v float64)) {
	for i, v := range d.Values {
		fn(i, v)
	}
}

func (d *Dense) Dot(theta []float64) float64 {
	return floats.Dot(d.Values, theta[:len(d.Values)])
}

// Entry is a stored feature of a sparse vector.
type Entry struct {
	Index int
	Value float64
}

type entries []Entry

func (e entries) Len() int           { return len(e) }
func (e entries) Less(i, j int) bool { return e[i].Index < e[j].Index }
func (e entries) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }

// Sparse is a vector that only stores set features, sorted by index.
type Sparse struct {
	N       int
	Entries []Entry
}

// NewSparse builds a sparse vector of width n from unordered entries. When an
// index appears more than once the first occurrence wins. Entries outside
// [0, n) are an error.
func NewSparse(n int, es []Entry) (*Sparse, error) {
	sorted := make(entries, len(es))
	copy(sorted, es)
	sort.Stable(sorted)
	sorted = sorted[:set.Uniq(sorted)]
	for _, e := range sorted {
		if e.Index < 0 || e.Index >= n {
			return nil, fmt.Errorf("feature index %d outside width %d", e.Index, n)
		}
	}
	return &Sparse{N: n, Entries: sorted}, nil
}

func (s *Sparse) Kind() Kind { return SparseKind }
func (s *Sparse) Width() int { return s.N }

func (s *Sparse) search(i int) int {
	return sort.Search(len(s.Entries), func(k int) bool { return s.Entries[k].Index >= i })
}

func (s *Sparse) At(i int) float64 {
	if k := s.search(i); k < len(s.Entries) && s.Entries[k].Index == i {
		return s.Entries[k].Value
	}
	return 0
}

func (s *Sparse) Set(i int, v float64) {
	if i < 0 || i >= s.N {
		panic(fmt.Sprintf("sample: index %d out of range [0, %d)", i, s.N))
	}
	k := s.search(i)
	if k < len(s.Entries) && s.Entries[k].Index == i {
		s.Entries[k].Value = v
		return
	}
	s.Entries = append(s.Entries, Entry{})
	copy(s.Entries[k+1:], s.Entries[k:])
	s.Entries[k] = Entry{Index: i, Value: v}
}

func (s *Sparse) Extend(n int) {
	if n > s.N {
		s.N = n
	}
}

func (s *Sparse) Range(fn func(i int, v float64)) {
	for _, e := range s.Entries {
		fn(e.Index, e.Value)
	}
}

func (s *Sparse) Dot(theta []float64) float64 {
	var sum float64
	for _, e := range s.Entries {
		sum += e.Value * theta[e.Index]
	}
	return sum
}
