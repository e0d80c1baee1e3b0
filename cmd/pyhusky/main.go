// Command pyhusky trains a linear regression model over partitioned samples
// and writes the exported parameters.
//
// Each positional input is a sample stream for one worker. Alternatively --url
// names a LIBSVM or TSV file that is split across --workers workers, and
// --restore trains on the datasets checkpointed under --store.
//
// The exit status is 2 for a malformed input, 3 for a precondition violation,
// 4 for an unknown name or missing file and 1 for any other failure.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/kygx-legend/pyhusky"
	"github.com/kygx-legend/pyhusky/config"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/load"
	"github.com/kygx-legend/pyhusky/optim"
	"github.com/kygx-legend/pyhusky/report"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
	"github.com/kygx-legend/pyhusky/stream"
	"github.com/mailru/easyjson"
	"github.com/peterbourgon/diskv"
)

var (
	name    = "pyhusky"
	version = "19.Oct.2026"
)

type args struct {
	Inputs        []string `arg:"positional" help:"sample stream files, one per worker"`
	URL           string   `arg:"-u" help:"bulk load this file instead of streams"`
	Restore       bool     `arg:"-r" help:"train on the datasets checkpointed in --store"`
	Name          string   `arg:"-n" help:"model and dataset name"`
	Alpha         float64  `arg:"-a" help:"learning rate"`
	Iterations    int      `arg:"-i" help:"training rounds"`
	Sparse        *bool    `arg:"-s" help:"use sparse feature vectors (--sparse=false overrides the config file)"`
	Format        string   `arg:"-f" help:"bulk file format (libsvm/tsv)"`
	Workers       int      `arg:"-w" help:"number of workers for --url and --restore"`
	Config        string   `arg:"-c" help:"properties file with default settings"`
	Output        string   `arg:"-o" help:"write parameters here instead of stdout"`
	Store         string   `help:"checkpoint datasets to this directory"`
	Headway       string   `help:"headway server address"`
	HeadwaySecret string   `help:"headway server secret"`
	Progress      *bool    `help:"draw a progress bar (--progress=false overrides the config file)"`
}

func (args) Version() string {
	return fmt.Sprintf("%s %s", name, version)
}

func (args) Description() string {
	return `train a linear regression model across workers and export its parameters`
}

func main() {
	var a args
	a.Name = "lr"
	arg.MustParse(&a)

	if err := run(a); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, 0).ErrorStack())
		os.Exit(1 + int(fault.KindOf(err)))
	}
}

// settings merges the config file with the flags that were given.
func settings(a args) (config.Config, error) {
	c := config.Default()
	if len(a.Config) > 0 {
		var err error
		c, err = config.Load(a.Config)
		if err != nil {
			return c, err
		}
	}
	if a.Alpha != 0 {
		c.Alpha = a.Alpha
	}
	if a.Iterations != 0 {
		c.Iterations = a.Iterations
	}
	if a.Workers != 0 {
		c.Workers = a.Workers
	}
	if len(a.Format) > 0 {
		c.Format = a.Format
	}
	if len(a.Store) > 0 {
		c.StorePath = a.Store
	}
	if len(a.Headway) > 0 {
		c.Headway = a.Headway
	}
	if len(a.HeadwaySecret) > 0 {
		c.HeadwaySecret = a.HeadwaySecret
	}
	if a.Sparse != nil {
		c.Sparse = *a.Sparse
	}
	if a.Progress != nil {
		c.Progress = *a.Progress
	}
	if len(a.URL) == 0 && !a.Restore {
		c.Workers = len(a.Inputs)
	}
	return c, c.Validate()
}

func run(a args) error {
	if len(a.URL) == 0 && len(a.Inputs) == 0 && !a.Restore {
		return errors.New("no inputs: give stream files, --url or --restore")
	}
	c, err := settings(a)
	if err != nil {
		return err
	}
	if a.Restore && len(c.StorePath) == 0 {
		return errors.New("--restore needs a checkpoint directory (--store or pyhusky.store.path)")
	}
	format, err := load.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	kind := sample.KindOf(c.Sparse)

	var (
		s       store.Store = store.NewMemory()
		options []func(*pyhusky.Worker)
	)
	if len(c.StorePath) > 0 {
		s, err = store.NewDiskv(diskv.New(store.DiskvOptions(c.StorePath)), c.CacheSize)
		if err != nil {
			return err
		}
		options = append(options, pyhusky.WithCheckpoint())
	}
	if c.Progress {
		options = append(options, pyhusky.WithProgress(os.Stderr))
	}
	if len(c.Headway) > 0 {
		job := fmt.Sprintf("%s-%s-%s", name, a.Name, uuid.New().String()[:8])
		options = append(options, pyhusky.WithReporter(report.NewHeadway(c.Headway, c.HeadwaySecret, job, 10)))
	}

	cluster, err := pyhusky.NewCluster(c.Workers, s, options...)
	if err != nil {
		return err
	}

	var summary optim.Summary
	err = cluster.Run(context.Background(), func(ctx context.Context, w *pyhusky.Worker) error {
		switch {
		case a.Restore:
			if _, err := w.Restore(ctx, a.Name, kind); err != nil {
				return err
			}
		case len(a.URL) > 0:
			if _, err := w.LoadURL(ctx, a.Name, a.URL, format, kind); err != nil {
				return err
			}
		default:
			f, err := os.Open(a.Inputs[w.ID])
			if err != nil {
				return err
			}
			defer f.Close()
			tokens := stream.NewScanner(f)
			if c.Delimiter == config.Space {
				tokens = stream.Words(f)
			}
			if _, err := w.LoadStream(ctx, a.Name, tokens, kind); err != nil {
				return err
			}
		}
		sum, err := w.Train(ctx, a.Name, c.Alpha, c.Iterations)
		if err != nil {
			return err
		}
		if w.ID == 0 {
			summary = sum
		}
		return nil
	})
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if len(a.Output) > 0 {
		f, err := os.Create(a.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := cluster.Workers[0].WriteParams(a.Name, out); err != nil {
		return err
	}

	b, err := easyjson.Marshal(summary)
	if err != nil {
		return err
	}
	log.Println(string(b))
	return nil
}
