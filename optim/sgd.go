// Package optim trains linear models with gradient descent over a partitioned
// dataset.
//
// Every worker holds a full replica of the parameters. In each round a worker
// computes the gradient of the squared error over its own partition; the
// partial gradients are summed across the group and every worker applies the
// same update, so the replicas never diverge.
package optim

import (
	"context"
	"math"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/report"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
	"gonum.org/v1/gonum/floats"
)

// SGD is the gradient descent optimiser of one worker.
type SGD struct {
	group     *collective.Group
	rank      int
	reporters []report.Reporter
}

// NewSGD creates the optimiser for rank within g. Reporters only receive
// progress on rank 0.
func NewSGD(g *collective.Group, rank int, reporters ...report.Reporter) *SGD {
	return &SGD{group: g, rank: rank, reporters: reporters}
}

// Train runs exactly rounds rounds of gradient descent with step alpha over c,
// updating theta in place. theta holds one weight per feature followed by the
// intercept. Every rank of the group must call Train with the same arguments.
func (o *SGD) Train(ctx context.Context, name string, c *store.Collection, theta []float64, rounds int, alpha float64, reportPerRound bool) (Summary, error) {
	if rounds <= 0 {
		return Summary{}, fault.Errorf(fault.Precondition, "optim.train", "number of rounds must be positive, got %d", rounds)
	}
	if alpha <= 0 || math.IsInf(alpha, 0) || math.IsNaN(alpha) {
		return Summary{}, fault.Errorf(fault.Precondition, "optim.train", "learning rate must be positive and finite, got %v", alpha)
	}
	if len(theta) < 1 {
		return Summary{}, fault.New(fault.Precondition, "optim.train", "no parameters to train")
	}

	publish := reportPerRound && o.rank == 0
	if publish {
		defer func() {
			for _, r := range o.reporters {
				_ = r.Done()
			}
		}()
	}

	var (
		width = len(theta) - 1
		// gradient, then squared error and sample count
		local = make([]float64, len(theta)+2)
		s     Summary
	)
	s.Model = name
	s.Params = len(theta)

	for round := 1; round <= rounds; round++ {
		for i := range local {
			local[i] = 0
		}
		c.ForEach(func(_ int, l *sample.Labeled) {
			diff := l.X.Dot(theta) + theta[width] - l.Y
			l.X.Range(func(i int, v float64) {
				local[i] += diff * v
			})
			local[width] += diff
			local[width+1] += diff * diff
			local[width+2]++
		})

		global, err := o.group.AllReduce(ctx, o.rank, local, collective.Sum)
		if err != nil {
			return s, err
		}
		n := global[width+2]
		if n == 0 {
			return s, fault.New(fault.Precondition, "optim.train", "dataset is empty on every worker")
		}
		floats.AddScaled(theta, -alpha/n, global[:width+1])

		s.Rounds = round
		s.Samples = int(n)
		s.Loss = global[width+1] / n
		if publish {
			for _, r := range o.reporters {
				if err := r.Report(report.Progress{Model: name, Round: round, Rounds: rounds, Loss: s.Loss}); err != nil {
					return s, err
				}
			}
		}
	}
	return s, nil
}
