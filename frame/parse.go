package frame

import (
	"fmt"
	"strings"

	"github.com/c360/treewire/errors"
)

// Separator is the reserved field delimiter. It cannot be reconfigured; fields
// containing it must be escaped.
const Separator = '|'

// DefaultEscapeChar brackets a field whose content contains the separator.
const DefaultEscapeChar = '~'

// Options bounds a single parse. Zero values disable the corresponding limit.
type Options struct {
	// EscapeChar toggles the escape region. Defaults to DefaultEscapeChar.
	EscapeChar byte
	// MaxMessageSize rejects the raw message before any scan.
	MaxMessageSize int
	// MaxParts caps the field count, checked as each field closes.
	MaxParts int
}

func (o Options) escapeChar() byte {
	if o.EscapeChar == 0 {
		return DefaultEscapeChar
	}
	return o.EscapeChar
}

// Parse splits a raw message into its ordered fields.
//
// The scan is a single left-to-right pass keeping one boolean escape flag.
// Each occurrence of the escape character toggles the flag and is dropped
// from the output; there is no nesting, so a second escape character always
// closes a region. The separator splits only while the flag is off. The
// trailing field is always appended, even when empty, so a message ending in
// a separator still yields its final empty field.
//
// A consequence of the toggle design is that field content cannot carry a
// literal escape character; consecutive escape characters collapse to
// nothing. This matches the wire protocol and is deliberate.
func Parse(raw string, opts Options) ([]string, error) {
	if opts.MaxMessageSize > 0 && len(raw) > opts.MaxMessageSize {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %d bytes exceeds limit %d", errors.ErrSizeExceeded, len(raw), opts.MaxMessageSize),
			"frame", "Parse", "check message size",
		)
	}

	esc := opts.escapeChar()
	fields := make([]string, 0, 8)
	var cur strings.Builder
	inEscape := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == esc:
			inEscape = !inEscape
		case c == Separator && !inEscape:
			fields = append(fields, cur.String())
			cur.Reset()
			// The trailing field is still to come, so closing field N means
			// at least N+1 fields total. Short-circuit here to bound memory
			// on adversarial input.
			if opts.MaxParts > 0 && len(fields) >= opts.MaxParts {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: more than %d fields", errors.ErrTooManyParts, opts.MaxParts),
					"frame", "Parse", "check field count",
				)
			}
		default:
			cur.WriteByte(c)
		}
	}

	fields = append(fields, cur.String())
	return fields, nil
}
