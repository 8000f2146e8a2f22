// Package security provides the validation applied to inbound frames before
// they reach effects: target identifier checks, structured payload guarding,
// and client TLS settings. A rejection drops or degrades the frame; it never
// closes the connection.
package security

import "regexp"

// MaxIdentifierLength caps target identifiers.
const MaxIdentifierLength = 100

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidIdentifier reports whether id is a well-formed target identifier:
// non-empty, at most MaxIdentifierLength characters, alphanumeric plus
// underscore and hyphen.
func ValidIdentifier(id string) bool {
	if id == "" || len(id) > MaxIdentifierLength {
		return false
	}
	return identifierPattern.MatchString(id)
}
