// Package stream reads labelled samples sent token by token by an external
// process.
//
// The wire format is a sequence of decimal ASCII tokens:
//
//	n_sample
//	repeat n_sample times:
//	    n_feature
//	    repeat n_feature times: feature_value
//	    label_value
//
// The channel is assumed to be trustworthy, so any token that cannot be parsed
// aborts the load; there is no resynchronisation.
package stream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/sample"
	"github.com/kygx-legend/pyhusky/store"
)

const op = "stream.read"

// Tokenizer yields the next token of a stream. It returns io.EOF when the
// stream has no more tokens.
type Tokenizer interface {
	Next() (string, error)
}

type scanner struct {
	s *bufio.Scanner
}

func (s scanner) Next() (string, error) {
	if s.s.Scan() {
		return s.s.Text(), nil
	}
	if err := s.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// NewScanner reads one token per line.
func NewScanner(r io.Reader) Tokenizer {
	return scanner{s: bufio.NewScanner(r)}
}

// Words reads tokens separated by any white space.
func Words(r io.Reader) Tokenizer {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return scanner{s: s}
}

type channel <-chan string

func (c channel) Next() (string, error) {
	t, ok := <-c
	if !ok {
		return "", io.EOF
	}
	return t, nil
}

// FromChannel reads one token per message. Closing the channel ends the stream.
func FromChannel(c <-chan string) Tokenizer {
	return channel(c)
}

type reader struct {
	tokens Tokenizer
	n      int
}

func (r *reader) next(what string) (string, error) {
	t, err := r.tokens.Next()
	if err == io.EOF {
		return "", fault.Errorf(fault.Protocol, op, "stream ended after %d tokens while reading %s", r.n, what)
	}
	if err != nil {
		return "", fault.Wrap(fault.Protocol, op, err)
	}
	r.n++
	return t, nil
}

func (r *reader) count(what string) (int, error) {
	t, err := r.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fault.Errorf(fault.Protocol, op, "token %d (%s): %v", r.n, what, err)
	}
	if n < 0 {
		return 0, fault.Errorf(fault.Protocol, op, "token %d (%s): negative count %d", r.n, what, n)
	}
	return n, nil
}

func (r *reader) float(what string) (float64, error) {
	t, err := r.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fault.Errorf(fault.Protocol, op, "token %d (%s): %v", r.n, what, err)
	}
	return v, nil
}

// Read consumes one load request from tokens and appends every sample to c as
// soon as it is complete. It returns the number of samples appended. Samples
// keep the feature count they were sent with.
func Read(tokens Tokenizer, c *store.Collection, kind sample.Kind) (int, error) {
	r := &reader{tokens: tokens}
	n, err := r.count("sample count")
	if err != nil {
		return 0, err
	}

	for i := 0; i < n; i++ {
		width, err := r.count(fmt.Sprintf("feature count of sample %d", i))
		if err != nil {
			return i, err
		}
		// The vector grows as values arrive, so a corrupt count fails on the
		// missing tokens rather than on allocation.
		x := sample.New(kind, 0)
		for j := 0; j < width; j++ {
			v, err := r.float(fmt.Sprintf("feature %d of sample %d", j, i))
			if err != nil {
				return i, err
			}
			x.Extend(j + 1)
			if v != 0 || kind == sample.DenseKind {
				x.Set(j, v)
			}
		}
		y, err := r.float(fmt.Sprintf("label of sample %d", i))
		if err != nil {
			return i, err
		}
		c.Append(sample.Labeled{X: x, Y: y})
	}
	return n, nil
}

// Write encodes samples in the wire format, one token per line.
func Write(w io.Writer, samples []sample.Labeled) error {
	bw := bufio.NewWriter(w)
	writeToken := func(s string) {
		bw.WriteString(s)
		bw.WriteByte('\n')
	}
	writeToken(strconv.Itoa(len(samples)))
	for _, s := range samples {
		writeToken(strconv.Itoa(s.X.Width()))
		for j := 0; j < s.X.Width(); j++ {
			writeToken(strconv.FormatFloat(s.X.At(j), 'g', -1, 64))
		}
		writeToken(strconv.FormatFloat(s.Y, 'g', -1, 64))
	}
	return bw.Flush()
}
