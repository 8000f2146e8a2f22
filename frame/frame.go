// Package frame implements the wire format: pipe-delimited UTF-8 text frames
// with a configurable escape character bracketing fields that contain the
// separator.
package frame

import (
	"fmt"

	"github.com/c360/treewire/errors"
)

// MinFields is the smallest actionable frame: verb, target, payload.
const MinFields = 3

// Frame is one decoded protocol message. It is produced transiently per
// inbound message and not retained after dispatch.
type Frame struct {
	Verb    string
	Target  string
	Payload string
	// Extras are passed through uninterpreted unless a verb's decode
	// function consumes them positionally.
	Extras []string
}

// FromFields builds a Frame from parser output. Fewer than MinFields fields
// is a short frame.
func FromFields(fields []string) (Frame, error) {
	if len(fields) < MinFields {
		return Frame{}, errors.WrapInvalid(
			fmt.Errorf("%w: got %d", errors.ErrShortFrame, len(fields)),
			"frame", "FromFields", "validate field count",
		)
	}
	return Frame{
		Verb:    fields[0],
		Target:  fields[1],
		Payload: fields[2],
		Extras:  fields[3:],
	}, nil
}

// Fields returns the frame as the ordered field list it was decoded from.
func (f Frame) Fields() []string {
	fields := make([]string, 0, MinFields+len(f.Extras))
	fields = append(fields, f.Verb, f.Target, f.Payload)
	return append(fields, f.Extras...)
}

// Extra returns the extra at position i, or def when it is absent or empty.
func (f Frame) Extra(i int, def string) string {
	if i < 0 || i >= len(f.Extras) || f.Extras[i] == "" {
		return def
	}
	return f.Extras[i]
}
