package frame

import "strings"

// Build joins verb, target, payload and extras into a wire message. Fields
// are joined verbatim; callers must escape any field whose content contains
// the separator.
func Build(verb, target, payload string, extras ...string) string {
	var b strings.Builder
	b.Grow(len(verb) + len(target) + len(payload) + 3)
	b.WriteString(verb)
	b.WriteByte(Separator)
	b.WriteString(target)
	b.WriteByte(Separator)
	b.WriteString(payload)
	for _, extra := range extras {
		b.WriteByte(Separator)
		b.WriteString(extra)
	}
	return b.String()
}

// Escape brackets a field in the escape character so the parser treats its
// content, separators included, as literal. Content containing the escape
// character itself cannot be represented; the toggle parser has no doubling
// convention.
func Escape(field string, escapeChar byte) string {
	if escapeChar == 0 {
		escapeChar = DefaultEscapeChar
	}
	var b strings.Builder
	b.Grow(len(field) + 2)
	b.WriteByte(escapeChar)
	b.WriteString(field)
	b.WriteByte(escapeChar)
	return b.String()
}

// BuildEscaped is Build with the payload passed through Escape. Extras are
// joined verbatim.
func BuildEscaped(escapeChar byte, verb, target, payload string, extras ...string) string {
	return Build(verb, target, Escape(payload, escapeChar), extras...)
}
