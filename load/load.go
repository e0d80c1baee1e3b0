// Package load bulk loads labelled samples from files.
package load

import (
	"bufio"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
	"github.com/pkg/errors"
)

const op = "load"

// Format is the record layout of a data file.
type Format int

const (
	// LIBSVM records are "label index:value ..." with 1-based indexes.
	LIBSVM Format = iota
	// TSV records are tab separated feature values followed by the label.
	TSV
)

func (f Format) String() string {
	if f == TSV {
		return "tsv"
	}
	return "libsvm"
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "libsvm", "svm":
		return LIBSVM, nil
	case "tsv":
		return TSV, nil
	}
	return 0, fault.Errorf(fault.Precondition, op, "unknown format %q", s)
}

// Load appends the records of the file at rawurl that belong to part to c.
// Records are assigned to parts round robin, so part k of parts reads records
// k, k+parts, k+2*parts and so on. Blank lines and lines starting with # are
// not records. The largest feature count of the loaded records is returned.
func Load(rawurl string, c *store.Collection, format Format, kind sample.Kind, part, parts int) (int, error) {
	if parts < 1 || part < 0 || part >= parts {
		return 0, fault.Errorf(fault.Precondition, op, "part %d of %d", part, parts)
	}
	path, err := localPath(rawurl)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fault.Wrap(fault.Lookup, op, err)
	}
	defer f.Close()

	parse := parseLIBSVM
	if format == TSV {
		parse = parseTSV
	}

	var (
		width  int
		record int
		line   int
	)
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		record++
		if (record-1)%parts != part {
			continue
		}
		l, err := parse(text, kind)
		if err != nil {
			return width, fault.Wrap(fault.Protocol, op, errors.Wrapf(err, "%s line %d", path, line))
		}
		if w := l.X.Width(); w > width {
			width = w
		}
		c.Append(l)
	}
	if err := s.Err(); err != nil {
		return width, fault.Wrap(fault.Protocol, op, err)
	}
	return width, nil
}

func localPath(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return "", fault.Wrap(fault.Precondition, op, err)
	}
	switch u.Scheme {
	case "":
		return rawurl, nil
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return "", fault.Errorf(fault.Precondition, op, "remote file url %q", rawurl)
		}
		return u.Path, nil
	}
	return "", fault.Errorf(fault.Precondition, op, "unsupported url scheme %q", u.Scheme)
}

func parseLIBSVM(text string, kind sample.Kind) (sample.Labeled, error) {
	fields := strings.Fields(text)
	y, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return sample.Labeled{}, errors.Wrap(err, "label")
	}
	entries := make([]sample.Entry, 0, len(fields)-1)
	width := 0
	for _, f := range fields[1:] {
		colon := strings.IndexByte(f, ':')
		if colon < 0 {
			return sample.Labeled{}, errors.Errorf("feature %q is not index:value", f)
		}
		i, err := strconv.Atoi(f[:colon])
		if err != nil {
			return sample.Labeled{}, errors.Wrapf(err, "feature %q", f)
		}
		if i < 1 {
			return sample.Labeled{}, errors.Errorf("feature %q has an index below 1", f)
		}
		v, err := strconv.ParseFloat(f[colon+1:], 64)
		if err != nil {
			return sample.Labeled{}, errors.Wrapf(err, "feature %q", f)
		}
		if i > width {
			width = i
		}
		entries = append(entries, sample.Entry{Index: i - 1, Value: v})
	}

	sp, err := sample.NewSparse(width, entries)
	if err != nil {
		return sample.Labeled{}, err
	}
	if kind == sample.SparseKind {
		return sample.Labeled{X: sp, Y: y}, nil
	}
	x := sample.New(sample.DenseKind, width)
	sp.Range(x.Set)
	return sample.Labeled{X: x, Y: y}, nil
}

func parseTSV(text string, kind sample.Kind) (sample.Labeled, error) {
	fields := strings.Split(text, "\t")
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return sample.Labeled{}, errors.Wrapf(err, "column %d", i+1)
		}
		values[i] = v
	}
	width := len(values) - 1
	y := values[width]
	x := sample.New(kind, width)
	for i, v := range values[:width] {
		if v != 0 || kind == sample.DenseKind {
			x.Set(i, v)
		}
	}
	return sample.Labeled{X: x, Y: y}, nil
}
