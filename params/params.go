// Package params serialises trained model parameters.
//
// The stream is a little-endian int32 parameter count followed by that many
// little-endian IEEE 754 float64 values in index order.
package params

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/kygx-legend/pyhusky/fault"
	"github.com/kygx-legend/pyhusky/model"
	"github.com/pkg/errors"
)

// Write exports the parameters of m to w.
func Write(w io.Writer, m model.Model) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return errors.Wrapf(err, "writing parameters of %q", m.Name())
}

// Encode returns the exported parameters of m.
func Encode(m model.Model) ([]byte, error) {
	if !m.Trained() {
		return nil, fault.Errorf(fault.Precondition, "params.write", "model %q has not been trained", m.Name())
	}
	n := m.NumParam()
	if n <= 0 || n > math.MaxInt32 {
		return nil, fault.Errorf(fault.Precondition, "params.write", "model %q has %d parameters", m.Name(), n)
	}
	b := make([]byte, 4+8*n)
	binary.LittleEndian.PutUint32(b, uint32(n))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(b[4+8*i:], math.Float64bits(m.ParamAt(i)))
	}
	return b, nil
}

// Read decodes a parameter stream.
func Read(r io.Reader) ([]float64, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fault.Wrap(fault.Protocol, "params.read", err)
	}
	if n < 0 {
		return nil, fault.Errorf(fault.Protocol, "params.read", "negative parameter count %d", n)
	}
	p := make([]float64, n)
	if err := binary.Read(r, binary.LittleEndian, p); err != nil {
		return nil, fault.Wrap(fault.Protocol, "params.read", err)
	}
	return p, nil
}

// Decode decodes an encoded parameter stream held in memory.
func Decode(b []byte) ([]float64, error) {
	return Read(bytes.NewReader(b))
}
