// Package store holds the named datasets the pipeline trains on.
//
// A dataset is a named collection split into one partition per worker. A
// worker only ever touches its own partition, but the store itself is shared
// by every worker in the process, so all of its methods are safe for
// concurrent use.
package store

import (
	"sync"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
)

// Store creates and looks up collection partitions.
type Store interface {
	// Put publishes c under its name and partition, replacing any existing one.
	Put(c *Collection) error
	// Get returns an existing partition, or a lookup failure.
	Get(name string, part int) (*Collection, error)
}

// Checkpointer is implemented by stores that can persist a partition.
type Checkpointer interface {
	Checkpoint(name string, part int) error
}

// Collection is one worker's partition of a named dataset.
type Collection struct {
	Name string
	Part int

	mu      sync.RWMutex
	samples []sample.Labeled
}

// NewCollection creates an empty partition.
func NewCollection(name string, part int) *Collection {
	return &Collection{Name: name, Part: part}
}

// Append adds a sample to the end of the partition.
func (c *Collection) Append(s sample.Labeled) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Len returns the number of samples in the partition.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.samples)
}

// ForEach calls fn on every sample in insertion order. fn may modify the
// sample in place but must not call back into the collection.
func (c *Collection) ForEach(fn func(i int, s *sample.Labeled)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.samples {
		fn(i, &c.samples[i])
	}
}

// At returns a copy of the i-th sample. The vector is shared.
func (c *Collection) At(i int) sample.Labeled {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.samples[i]
}

type key struct {
	name string
	part int
}

// Memory is a Store that keeps every partition in memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[key]*Collection
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[key]*Collection)}
}

func (m *Memory) Put(c *Collection) error {
	if c.Part < 0 {
		return fault.Errorf(fault.Precondition, "store.put", "negative partition %d for %q", c.Part, c.Name)
	}
	m.mu.Lock()
	m.collections[key{c.Name, c.Part}] = c
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(name string, part int) (*Collection, error) {
	m.mu.RLock()
	c, ok := m.collections[key{name, part}]
	m.mu.RUnlock()
	if !ok {
		return nil, fault.Errorf(fault.Lookup, "store.get", "no dataset named %q for partition %d", name, part)
	}
	return c, nil
}
