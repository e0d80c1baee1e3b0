// Package model holds the named linear models a worker trains.
package model

import (
	"context"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/optim"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
)

// Optimizer updates a parameter vector in place over a dataset partition.
type Optimizer interface {
	Train(ctx context.Context, name string, c *store.Collection, theta []float64, rounds int, alpha float64, reportPerRound bool) (optim.Summary, error)
}

// Model is a trainable model with a flat parameter vector.
type Model interface {
	Name() string
	Kind() sample.Kind
	// NumFeature is the feature width the model was created with.
	NumFeature() int
	// NumParam is zero until the model has been trained.
	NumParam() int
	ParamAt(i int) float64
	// Params returns a copy of the parameter vector.
	Params() []float64
	Trained() bool
	Train(ctx context.Context, c *store.Collection, o Optimizer, rounds int, alpha float64) (optim.Summary, error)
}

// LinearRegression is a least-squares linear model. Its parameters are one
// weight per feature followed by the intercept.
type LinearRegression struct {
	name  string
	kind  sample.Kind
	width int
	theta []float64

	// ReportPerRound makes the optimizer publish the loss after every round.
	ReportPerRound bool
}

// NewLinearRegression creates an untrained model over width features.
func NewLinearRegression(name string, width int, kind sample.Kind) (*LinearRegression, error) {
	if width <= 0 {
		return nil, fault.Errorf(fault.Precondition, "model.create", "model %q needs a positive feature count, got %d", name, width)
	}
	return &LinearRegression{name: name, kind: kind, width: width}, nil
}

func (m *LinearRegression) Name() string      { return m.name }
func (m *LinearRegression) Kind() sample.Kind { return m.kind }
func (m *LinearRegression) NumFeature() int   { return m.width }
func (m *LinearRegression) NumParam() int     { return len(m.theta) }
func (m *LinearRegression) Trained() bool     { return m.theta != nil }

func (m *LinearRegression) ParamAt(i int) float64 {
	return m.theta[i]
}

func (m *LinearRegression) Params() []float64 {
	if m.theta == nil {
		return nil
	}
	p := make([]float64, len(m.theta))
	copy(p, m.theta)
	return p
}

// Train continues training from the current parameters. The first call starts
// from all zeros. The parameters are only replaced when every round succeeds.
func (m *LinearRegression) Train(ctx context.Context, c *store.Collection, o Optimizer, rounds int, alpha float64) (optim.Summary, error) {
	if err := Validate(m, c); err != nil {
		return optim.Summary{}, err
	}
	theta := make([]float64, m.width+1)
	copy(theta, m.theta)
	s, err := o.Train(ctx, m.name, c, theta, rounds, alpha, m.ReportPerRound)
	if err != nil {
		return s, err
	}
	m.theta = theta
	return s, nil
}

// Validate checks that every sample of c matches the kind and width of m.
func Validate(m Model, c *store.Collection) error {
	var err error
	c.ForEach(func(i int, s *sample.Labeled) {
		if err != nil {
			return
		}
		switch {
		case s.X.Kind() != m.Kind():
			err = fault.Errorf(fault.Precondition, "model.validate", "sample %d of %q is %s but model %q is %s", i, c.Name, s.X.Kind(), m.Name(), m.Kind())
		case s.X.Width() != m.NumFeature():
			err = fault.Errorf(fault.Precondition, "model.validate", "sample %d of %q has width %d but model %q has width %d", i, c.Name, s.X.Width(), m.Name(), m.NumFeature())
		}
	})
	return err
}
