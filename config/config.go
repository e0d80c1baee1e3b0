// Package config reads training settings from a properties file.
//
//	pyhusky.workers = 4
//	pyhusky.train.alpha = 0.1
//	pyhusky.train.iterations = 100
//	pyhusky.model.sparse = false
//	pyhusky.load.format = libsvm
//	pyhusky.stream.delimiter = line
//	pyhusky.store.path = /var/lib/pyhusky
//	pyhusky.store.cache = 16
//	pyhusky.headway = http://localhost:7777
//	pyhusky.headway.secret = changeme
//	pyhusky.progress = true
//
// Every key is optional.
package config

import (
	"math"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/load"
	"github.com/magiconair/properties"
)

const op = "config"

// Stream token delimiters.
const (
	Line  = "line"
	Space = "space"
)

// Config holds the settings of a training run.
type Config struct {
	Workers    int
	Alpha      float64
	Iterations int
	Sparse     bool
	Format     string
	// Delimiter separates stream tokens, either Line or Space.
	Delimiter string
	// StorePath enables dataset checkpoints when set.
	StorePath string
	CacheSize int
	// Headway is the progress server address; HeadwaySecret authenticates.
	Headway       string
	HeadwaySecret string
	Progress      bool
}

// Default returns the settings used for absent keys.
func Default() Config {
	return Config{
		Workers:    1,
		Alpha:      0.1,
		Iterations: 100,
		Format:     load.LIBSVM.String(),
		Delimiter:  Line,
		CacheSize:  16,
	}
}

// Load reads the properties file at path.
func Load(path string) (Config, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return Config{}, fault.Wrap(fault.Lookup, op, err)
	}
	return FromProperties(p)
}

// FromProperties reads a config from p, falling back to Default.
func FromProperties(p *properties.Properties) (Config, error) {
	d := Default()
	c := Config{
		Workers:       p.GetInt("pyhusky.workers", d.Workers),
		Alpha:         p.GetFloat64("pyhusky.train.alpha", d.Alpha),
		Iterations:    p.GetInt("pyhusky.train.iterations", d.Iterations),
		Sparse:        p.GetBool("pyhusky.model.sparse", d.Sparse),
		Format:        p.GetString("pyhusky.load.format", d.Format),
		Delimiter:     p.GetString("pyhusky.stream.delimiter", d.Delimiter),
		StorePath:     p.GetString("pyhusky.store.path", d.StorePath),
		CacheSize:     p.GetInt("pyhusky.store.cache", d.CacheSize),
		Headway:       p.GetString("pyhusky.headway", d.Headway),
		HeadwaySecret: p.GetString("pyhusky.headway.secret", d.HeadwaySecret),
		Progress:      p.GetBool("pyhusky.progress", d.Progress),
	}
	return c, c.Validate()
}

// Validate checks that the settings describe a runnable job.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fault.Errorf(fault.Precondition, op, "pyhusky.workers must be at least 1, got %d", c.Workers)
	case c.Iterations < 1:
		return fault.Errorf(fault.Precondition, op, "pyhusky.train.iterations must be at least 1, got %d", c.Iterations)
	case !(c.Alpha > 0) || math.IsInf(c.Alpha, 0):
		return fault.Errorf(fault.Precondition, op, "pyhusky.train.alpha must be positive, got %v", c.Alpha)
	case c.Delimiter != Line && c.Delimiter != Space:
		return fault.Errorf(fault.Precondition, op, "pyhusky.stream.delimiter must be %q or %q, got %q", Line, Space, c.Delimiter)
	case c.CacheSize < 1:
		return fault.Errorf(fault.Precondition, op, "pyhusky.store.cache must be at least 1, got %d", c.CacheSize)
	}
	if _, err := load.ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}
