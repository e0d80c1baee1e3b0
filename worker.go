// Package pyhusky trains linear regression models over datasets partitioned
// across a group of workers.
//
// Each Worker owns one partition of every dataset and its own registry of
// named models. Samples arrive as a token stream from an external process
// (LoadStream), from a file (LoadURL) or from an earlier checkpoint (Restore). Loading reconciles the feature
// width across the group and registers a model of that width; Train scales the
// dataset and runs gradient descent; WriteParams exports the parameters.
// Every worker of the group must take part in LoadStream, LoadURL, Restore and
// Train for the same name, in the same order.
package pyhusky

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/load"
	"github.com/kygx-legend/pyhusky/model"
	"github.com/kygx-legend/pyhusky/optim"
	"github.com/kygx-legend/pyhusky/params"
	"github.com/kygx-legend/pyhusky/reconcile"
	"github.com/kygx-legend/pyhusky/report"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/scale"
	"github.com/kygx-legend/pyhusky/store"
	"github.com/kygx-legend/pyhusky/stream"
)

// Worker is one participant of a training group.
type Worker struct {
	ID int

	group      *collective.Group
	store      store.Store
	models     *model.Registry
	reporters  []report.Reporter
	checkpoint bool
	logger     *log.Logger
}

// WithReporter adds reporters that receive per-round progress.
func WithReporter(r ...report.Reporter) func(*Worker) {
	return func(w *Worker) {
		w.reporters = append(w.reporters, r...)
	}
}

// WithProgress draws a progress bar over the training rounds to out.
func WithProgress(out io.Writer) func(*Worker) {
	return func(w *Worker) {
		w.reporters = append(w.reporters, report.NewBar(out))
	}
}

// WithCheckpoint persists every dataset once it is reconciled, if the store
// supports it.
func WithCheckpoint() func(*Worker) {
	return func(w *Worker) {
		w.checkpoint = true
	}
}

// WithLogger replaces the worker's logger.
func WithLogger(l *log.Logger) func(*Worker) {
	return func(w *Worker) {
		w.logger = l
	}
}

// NewWorker creates worker id of group g over the shared store s. Per-round
// losses always go to the worker's logger.
func NewWorker(id int, g *collective.Group, s store.Store, options ...func(*Worker)) *Worker {
	w := &Worker{
		ID:     id,
		group:  g,
		store:  s,
		models: model.NewRegistry(),
		logger: log.New(os.Stderr, fmt.Sprintf("[worker %d] ", id), log.LstdFlags),
	}
	for _, option := range options {
		option(w)
	}
	w.reporters = append([]report.Reporter{report.Log{Logger: w.logger}}, w.reporters...)
	return w
}

// LoadStream reads one streamed load request into the worker's partition of
// dataset name and creates the model name over the reconciled width. It
// returns the reconciled width. The partition and model are only replaced
// once the whole request has been read and reconciled.
func (w *Worker) LoadStream(ctx context.Context, name string, tokens stream.Tokenizer, kind sample.Kind) (int, error) {
	c := store.NewCollection(name, w.ID)
	n, err := stream.Read(tokens, c, kind)
	if err != nil {
		return 0, err
	}
	w.logger.Printf("streamed %d samples into %s", n, name)
	return w.createModel(ctx, name, c, kind, w.checkpoint)
}

// LoadURL loads the worker's share of the records at url into dataset name and
// creates the model name over the reconciled width. It returns the reconciled
// width. As with LoadStream, a failed load leaves the previous partition and
// model in place.
func (w *Worker) LoadURL(ctx context.Context, name, url string, format load.Format, kind sample.Kind) (int, error) {
	c := store.NewCollection(name, w.ID)
	if _, err := load.Load(url, c, format, kind, w.ID, w.group.Size()); err != nil {
		return 0, err
	}
	w.logger.Printf("loaded %d samples from %s into %s", c.Len(), url, name)
	return w.createModel(ctx, name, c, kind, w.checkpoint)
}

// Restore creates the model name over the stored partition of dataset name,
// which may only exist as a checkpoint on disk. It returns the reconciled
// width.
func (w *Worker) Restore(ctx context.Context, name string, kind sample.Kind) (int, error) {
	c, err := w.store.Get(name, w.ID)
	if err != nil {
		return 0, err
	}
	w.logger.Printf("restored %d samples of %s", c.Len(), name)
	return w.createModel(ctx, name, c, kind, false)
}

func (w *Worker) createModel(ctx context.Context, name string, c *store.Collection, kind sample.Kind, checkpoint bool) (int, error) {
	width, err := reconcile.Run(ctx, w.group, w.ID, c)
	if err != nil {
		return 0, err
	}
	if err := w.store.Put(c); err != nil {
		return width, err
	}
	if checkpoint {
		if cp, ok := w.store.(store.Checkpointer); ok {
			if err := cp.Checkpoint(name, w.ID); err != nil {
				return width, err
			}
		}
	}
	w.logger.Println("create model name:", name)
	if _, err := w.models.Create(name, width, kind); err != nil {
		return width, err
	}
	return width, nil
}

// Train scales dataset name and trains model name on it for numIter rounds of
// gradient descent with learning rate alpha.
func (w *Worker) Train(ctx context.Context, name string, alpha float64, numIter int) (optim.Summary, error) {
	m, err := w.models.Get(name)
	if err != nil {
		return optim.Summary{}, err
	}
	c, err := w.store.Get(name, w.ID)
	if err != nil {
		return optim.Summary{}, err
	}
	if numIter <= 0 {
		return optim.Summary{}, fault.Errorf(fault.Precondition, "train", "number of iterations must be positive, got %d", numIter)
	}
	if !(alpha > 0) || math.IsInf(alpha, 0) {
		return optim.Summary{}, fault.Errorf(fault.Precondition, "train", "learning rate must be positive, got %v", alpha)
	}
	if err := model.Validate(m, c); err != nil {
		return optim.Summary{}, err
	}

	w.logger.Println("start training name:", name)
	if err := scale.NewLinear(m.NumFeature(), m.Kind(), w.group, w.ID).FitTransform(ctx, c); err != nil {
		return optim.Summary{}, err
	}
	return m.Train(ctx, c, optim.NewSGD(w.group, w.ID, w.reporters...), numIter, alpha)
}

// Model returns the model registered under name.
func (w *Worker) Model(name string) (model.Model, error) {
	return w.models.Get(name)
}

// Params returns a copy of the trained parameters of model name.
func (w *Worker) Params(name string) ([]float64, error) {
	m, err := w.models.Get(name)
	if err != nil {
		return nil, err
	}
	if !m.Trained() {
		return nil, fault.Errorf(fault.Precondition, "params", "model %q has not been trained", name)
	}
	return m.Params(), nil
}

// WriteParams exports the parameters of model name to out.
func (w *Worker) WriteParams(name string, out io.Writer) error {
	m, err := w.models.Get(name)
	if err != nil {
		return err
	}
	return params.Write(out, m)
}
