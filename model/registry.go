package model

import (
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
)

// Registry maps names to the models of one worker. It is owned by a single
// worker and is not safe for concurrent use.
type Registry struct {
	models map[string]Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// Create builds a linear regression model over width features and stores it
// under name, discarding any previous model of that name.
func (r *Registry) Create(name string, width int, kind sample.Kind) (*LinearRegression, error) {
	m, err := NewLinearRegression(name, width, kind)
	if err != nil {
		return nil, err
	}
	m.ReportPerRound = true
	r.models[name] = m
	return m, nil
}

// Get returns the model stored under name.
func (r *Registry) Get(name string) (Model, error) {
	m, ok := r.models[name]
	if !ok {
		return nil, fault.Errorf(fault.Lookup, "model.get", "no model named %q", name)
	}
	return m, nil
}

