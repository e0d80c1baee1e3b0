// Package report publishes per-round training progress.
package report

import (
	"fmt"
	"io"
	"log"

	"github.com/cheggaaa/pb/v3"
	"github.com/hscells/headway"
)

// Progress is the state of a training run after a round.
type Progress struct {
	Model  string
	Round  int
	Rounds int
	// Loss is the global mean squared error before the round's update.
	Loss float64
}

// Reporter receives progress after every round. Done is called once the run
// has finished, successfully or not.
type Reporter interface {
	Report(p Progress) error
	Done() error
}

// Log writes one line per round.
type Log struct {
	Logger *log.Logger
}

func (l Log) Report(p Progress) error {
	msg := fmt.Sprintf("%s: round %d/%d loss %.6g", p.Model, p.Round, p.Rounds, p.Loss)
	if l.Logger != nil {
		l.Logger.Println(msg)
	} else {
		log.Println(msg)
	}
	return nil
}

func (Log) Done() error { return nil }

// Bar draws a terminal progress bar over the rounds of a run.
type Bar struct {
	w   io.Writer
	bar *pb.ProgressBar
}

// NewBar creates a progress bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Report(p Progress) error {
	if b.bar == nil {
		b.bar = pb.New(p.Rounds).SetWriter(b.w).Start()
	}
	b.bar.Increment()
	return nil
}

func (b *Bar) Done() error {
	if b.bar != nil {
		b.bar.Finish()
		b.bar = nil
	}
	return nil
}

// Headway forwards progress to a headway server.
type Headway struct {
	client *headway.Client
	job    string
	every  int
}

// NewHeadway reports to the headway server at addr, authenticating with
// secret, under the job name. Only every n-th round is sent; the final round
// is always sent.
func NewHeadway(addr, secret, job string, every int) *Headway {
	if every < 1 {
		every = 1
	}
	return &Headway{client: headway.NewClient(addr, secret), job: job, every: every}
}

func (h *Headway) Report(p Progress) error {
	if p.Round%h.every != 0 && p.Round != p.Rounds {
		return nil
	}
	return h.client.Send(float64(p.Round), float64(p.Rounds), h.job, fmt.Sprintf("%s loss %.6g", p.Model, p.Loss))
}

func (h *Headway) Done() error { return nil }
