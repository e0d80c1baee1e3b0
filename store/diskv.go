package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
)

func registerTypes() {
	gob.Register(&sample.Dense{})
	gob.Register(&sample.Sparse{})
}

type snapshot struct {
	Name    string
	Part    int
	Samples []sample.Labeled
}

// Diskv is a Store whose partitions can be checkpointed to disk. Published
// partitions are served from memory; partitions that only exist on disk are
// decoded on first access and kept in a bounded LRU cache until they are
// published again with Put.
type Diskv struct {
	live  *Memory
	dv    *diskv.Diskv
	cache *lru.Cache
}

// DiskvOptions returns the diskv configuration used for a checkpoint directory.
func DiskvOptions(path string) diskv.Options {
	return diskv.Options{
		BasePath:     path,
		Transform:    shard,
		CacheSizeMax: 4096 * 1024,
		Compression:  diskv.NewGzipCompression(),
	}
}

// NewDiskv creates a checkpointing store on top of dv. cacheSize bounds how
// many reloaded partitions are kept decoded in memory.
func NewDiskv(dv *diskv.Diskv, cacheSize int) (*Diskv, error) {
	registerTypes()
	if cacheSize <= 0 {
		cacheSize = 16
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Diskv{live: NewMemory(), dv: dv, cache: cache}, nil
}

// diskKey hashes the dataset name so any name is a valid file path.
func diskKey(name string, part int) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%016x-%d", h.Sum64(), part)
}

// shard spreads checkpoints over two directory levels taken from the leading
// hash digits of a diskKey.
func shard(k string) []string {
	if len(k) < 4 {
		return nil
	}
	return []string{k[:2], k[2:4]}
}

func (d *Diskv) Put(c *Collection) error {
	d.cache.Remove(key{c.Name, c.Part})
	return d.live.Put(c)
}

func (d *Diskv) Get(name string, part int) (*Collection, error) {
	if c, err := d.live.Get(name, part); err == nil {
		return c, nil
	}
	if v, ok := d.cache.Get(key{name, part}); ok {
		return v.(*Collection), nil
	}

	b, err := d.dv.Read(diskKey(name, part))
	if err != nil {
		return nil, fault.Errorf(fault.Lookup, "store.get", "no dataset named %q for partition %d", name, part)
	}
	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&snap); err != nil {
		return nil, errors.Wrapf(err, "decoding checkpoint of %q", name)
	}
	c := NewCollection(snap.Name, snap.Part)
	c.samples = snap.Samples
	d.cache.Add(key{name, part}, c)
	return c, nil
}

// Checkpoint writes the current contents of a partition to disk.
func (d *Diskv) Checkpoint(name string, part int) error {
	c, err := d.Get(name, part)
	if err != nil {
		return err
	}

	var buff bytes.Buffer
	c.mu.RLock()
	err = gob.NewEncoder(&buff).Encode(snapshot{Name: c.Name, Part: c.Part, Samples: c.samples})
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrapf(err, "encoding checkpoint of %q", name)
	}
	return d.dv.Write(diskKey(name, part), buff.Bytes())
}
