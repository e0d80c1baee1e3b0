package optim_test

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/kygx-legend/pyhusky/collective"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/optim"
	"github.com/kygx-legend/pyhusky/report"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
)

// line returns the samples of y = 2x + 1 for x in [from, to).
func line(part, from, to int) *store.Collection {
	c := store.NewCollection("lr", part)
	for x := from; x < to; x++ {
		c.Append(sample.Labeled{X: sample.NewDense([]float64{float64(x) / 10}), Y: 2*float64(x)/10 + 1})
	}
	return c
}

type recorder struct {
	mu     sync.Mutex
	rounds []int
	done   int
}

func (r *recorder) Report(p report.Progress) error {
	r.mu.Lock()
	r.rounds = append(r.rounds, p.Round)
	r.mu.Unlock()
	return nil
}

func (r *recorder) Done() error {
	r.mu.Lock()
	r.done++
	r.mu.Unlock()
	return nil
}

func TestConverges(t *testing.T) {
	g, _ := collective.NewGroup(1)
	rec := &recorder{}
	theta := make([]float64, 2)
	s, err := optim.NewSGD(g, 0, rec).Train(context.Background(), "lr", line(0, 0, 10), theta, 2000, 1.0, true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(theta[0]-2) > 1e-6 || math.Abs(theta[1]-1) > 1e-6 {
		t.Fatalf("expected [2 1], got %v", theta)
	}
	if s.Rounds != 2000 || s.Samples != 10 || s.Params != 2 {
		t.Errorf("unexpected summary %+v", s)
	}
	if len(rec.rounds) != 2000 || rec.done != 1 {
		t.Errorf("expected 2000 reports and one done, got %d and %d", len(rec.rounds), rec.done)
	}
}

func TestNoReportWhenDisabled(t *testing.T) {
	g, _ := collective.NewGroup(1)
	rec := &recorder{}
	theta := make([]float64, 2)
	if _, err := optim.NewSGD(g, 0, rec).Train(context.Background(), "lr", line(0, 0, 10), theta, 3, 0.1, false); err != nil {
		t.Fatal(err)
	}
	if len(rec.rounds) != 0 || rec.done != 0 {
		t.Errorf("reporter was called")
	}
}

func TestDistributedMatchesSingle(t *testing.T) {
	g1, _ := collective.NewGroup(1)
	single := make([]float64, 2)
	if _, err := optim.NewSGD(g1, 0).Train(context.Background(), "lr", line(0, 0, 10), single, 50, 0.5, false); err != nil {
		t.Fatal(err)
	}

	g, _ := collective.NewGroup(3)
	parts := []*store.Collection{line(0, 0, 4), line(1, 4, 4), line(2, 4, 10)}
	thetas := make([][]float64, 3)
	errs := make([]error, 3)
	rec := &recorder{}
	var wg sync.WaitGroup
	for rank := range parts {
		thetas[rank] = make([]float64, 2)
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			_, errs[rank] = optim.NewSGD(g, rank, rec).Train(context.Background(), "lr", parts[rank], thetas[rank], 50, 0.5, true)
		}(rank)
	}
	wg.Wait()
	for rank := range parts {
		if errs[rank] != nil {
			t.Fatalf("rank %d: %v", rank, errs[rank])
		}
		for i := range single {
			if math.Abs(thetas[rank][i]-single[i]) > 1e-9 {
				t.Errorf("rank %d param %d: got %v, want %v", rank, i, thetas[rank][i], single[i])
			}
			if thetas[rank][i] != thetas[0][i] {
				t.Errorf("rank %d diverged from rank 0", rank)
			}
		}
	}
	if len(rec.rounds) != 50 || rec.done != 1 {
		t.Errorf("only rank 0 should report, got %d reports and %d done", len(rec.rounds), rec.done)
	}
}

func TestEmptyDataset(t *testing.T) {
	g, _ := collective.NewGroup(2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			theta := make([]float64, 3)
			_, errs[rank] = optim.NewSGD(g, rank).Train(context.Background(), "lr", store.NewCollection("lr", rank), theta, 5, 0.1, false)
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		if !fault.Is(err, fault.Precondition) {
			t.Errorf("rank %d: expected a precondition violation, got %v", rank, err)
		}
	}
}

func TestBadArguments(t *testing.T) {
	g, _ := collective.NewGroup(1)
	o := optim.NewSGD(g, 0)
	theta := make([]float64, 2)
	if _, err := o.Train(context.Background(), "lr", line(0, 0, 2), theta, 0, 0.1, false); !fault.Is(err, fault.Precondition) {
		t.Errorf("zero rounds: %v", err)
	}
	if _, err := o.Train(context.Background(), "lr", line(0, 0, 2), theta, 1, -1, false); !fault.Is(err, fault.Precondition) {
		t.Errorf("negative alpha: %v", err)
	}
}

func TestSummaryJSON(t *testing.T) {
	b, err := json.Marshal(optim.Summary{Model: "lr", Rounds: 2, Loss: 0.5, Samples: 10, Params: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"model":"lr","rounds":2,"loss":0.5,"samples":10,"params":3}` {
		t.Errorf("unexpected json %s", b)
	}
}
