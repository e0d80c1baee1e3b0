// Package scale normalises feature columns using statistics gathered across
// every worker.
package scale

import (
	"context"
	"math"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
	"gonum.org/v1/gonum/floats"
)

// Linear rescales every feature column with an affine map.
//
// Dense features are min-max scaled into [0, 1]; a constant column becomes 0.
// Sparse features are divided by the column's largest absolute value so that
// implicit zeros stay zero.
type Linear struct {
	width int
	kind  sample.Kind
	group *collective.Group
	rank  int

	// offset and factor map v to (v - offset) * factor.
	offset []float64
	factor []float64
}

// NewLinear creates a scaler for width columns of the given kind. The
// statistics are combined across g, so every rank must call Fit together.
func NewLinear(width int, kind sample.Kind, g *collective.Group, rank int) *Linear {
	return &Linear{width: width, kind: kind, group: g, rank: rank}
}

// Fit computes the global column statistics of the partitions of every rank.
func (l *Linear) Fit(ctx context.Context, c *store.Collection) error {
	if l.kind == sample.SparseKind {
		return l.fitMaxAbs(ctx, c)
	}
	return l.fitMinMax(ctx, c)
}

func (l *Linear) fitMinMax(ctx context.Context, c *store.Collection) error {
	// maxima, then negated minima, so a single max-reduction finds both
	local := make([]float64, 2*l.width)
	floats.AddConst(math.Inf(-1), local)
	var err error
	c.ForEach(func(_ int, s *sample.Labeled) {
		if err != nil {
			return
		}
		if s.X.Width() != l.width {
			err = fault.Errorf(fault.Precondition, "scale.fit", "sample width %d does not match scaler width %d", s.X.Width(), l.width)
			return
		}
		s.X.Range(func(i int, v float64) {
			local[i] = math.Max(local[i], v)
			local[l.width+i] = math.Max(local[l.width+i], -v)
		})
	})
	if err != nil {
		return err
	}
	global, err := l.group.AllReduce(ctx, l.rank, local, collective.Max)
	if err != nil {
		return err
	}

	l.offset = make([]float64, l.width)
	l.factor = make([]float64, l.width)
	for i := 0; i < l.width; i++ {
		hi, lo := global[i], -global[l.width+i]
		l.offset[i] = lo
		if hi > lo {
			l.factor[i] = 1 / (hi - lo)
		}
	}
	return nil
}

func (l *Linear) fitMaxAbs(ctx context.Context, c *store.Collection) error {
	local := make([]float64, l.width)
	var err error
	c.ForEach(func(_ int, s *sample.Labeled) {
		if err != nil {
			return
		}
		if s.X.Width() != l.width {
			err = fault.Errorf(fault.Precondition, "scale.fit", "sample width %d does not match scaler width %d", s.X.Width(), l.width)
			return
		}
		s.X.Range(func(i int, v float64) {
			local[i] = math.Max(local[i], math.Abs(v))
		})
	})
	if err != nil {
		return err
	}
	global, err := l.group.AllReduce(ctx, l.rank, local, collective.Max)
	if err != nil {
		return err
	}

	l.offset = make([]float64, l.width)
	l.factor = global
	for i, m := range l.factor {
		if m > 0 {
			l.factor[i] = 1 / m
		}
	}
	return nil
}

// Transform applies the fitted statistics to c in place.
func (l *Linear) Transform(c *store.Collection) error {
	if l.factor == nil {
		return fault.New(fault.Precondition, "scale.transform", "scaler has not been fitted")
	}
	c.ForEach(func(_ int, s *sample.Labeled) {
		s.X.Range(func(i int, v float64) {
			s.X.Set(i, (v-l.offset[i])*l.factor[i])
		})
	})
	return nil
}

// FitTransform fits the scaler on c and rescales c with the result.
func (l *Linear) FitTransform(ctx context.Context, c *store.Collection) error {
	if err := l.Fit(ctx, c); err != nil {
		return err
	}
	return l.Transform(c)
}

