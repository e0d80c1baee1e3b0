package optim

import (
	"github.com/mailru/easyjson/jwriter"
)

// Summary describes a finished training run.
type Summary struct {
	Model string
	// Rounds is the number of completed rounds.
	Rounds int
	// Loss is the global mean squared error seen in the last round.
	Loss    float64
	Samples int
	Params  int
}

// MarshalEasyJSON writes the summary as a JSON object.
func (s Summary) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawString(`{"model":`)
	w.String(s.Model)
	w.RawString(`,"rounds":`)
	w.Int(s.Rounds)
	w.RawString(`,"loss":`)
	w.Float64(s.Loss)
	w.RawString(`,"samples":`)
	w.Int(s.Samples)
	w.RawString(`,"params":`)
	w.Int(s.Params)
	w.RawByte('}')
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.BuildBytes()
}
