package security

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/c360/treewire/errors"
)

// DefaultMaxPayloadSize bounds structured payloads before any parse.
const DefaultMaxPayloadSize = 64 * 1024

// Forbidden object keys. A structured payload smuggling these is attempting
// prototype pollution on a script-engine host; this client only relays
// content, so reject rather than interpret.
var forbiddenKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// PayloadGuard validates structured (JSON-like) payloads before a verb's
// decode runs. A disabled guard accepts everything.
type PayloadGuard struct {
	maxSize int
	enabled bool
}

// NewPayloadGuard returns a guard with the given size cap. maxSize <= 0 uses
// DefaultMaxPayloadSize.
func NewPayloadGuard(maxSize int, enabled bool) *PayloadGuard {
	if maxSize <= 0 {
		maxSize = DefaultMaxPayloadSize
	}
	return &PayloadGuard{maxSize: maxSize, enabled: enabled}
}

// Check validates a payload that claims to carry structured data. It returns
// nil for payloads that are not structured at all: those fall back to raw
// string handling in the verb, which is the documented degradation path.
func (g *PayloadGuard) Check(payload string) error {
	if g == nil || !g.enabled {
		return nil
	}

	if len(payload) > g.maxSize {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %d bytes exceeds limit %d", errors.ErrPayloadTooLarge, len(payload), g.maxSize),
			"security", "Check", "check payload size",
		)
	}

	if !Structured(payload) || !gjson.Valid(payload) {
		return nil
	}

	if key, found := findForbiddenKey(gjson.Parse(payload)); found {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrForbiddenKey, key),
			"security", "Check", "scan payload keys",
		)
	}
	return nil
}

// Structured reports whether a payload looks like a JSON document rather
// than plain text.
func Structured(payload string) bool {
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}

// findForbiddenKey walks a parsed document looking for a forbidden object
// key at any depth.
func findForbiddenKey(doc gjson.Result) (string, bool) {
	var hit string
	doc.ForEach(func(key, value gjson.Result) bool {
		if _, bad := forbiddenKeys[key.String()]; bad {
			hit = key.String()
			return false
		}
		if value.IsObject() || value.IsArray() {
			if k, found := findForbiddenKey(value); found {
				hit = k
				return false
			}
		}
		return true
	})
	return hit, hit != ""
}
