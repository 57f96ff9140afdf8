package script

import (
	"os"
	"strings"
)

// Interpolate scans text for "$NAME" references, where NAME matches
// [A-Za-z0-9_]+, substituting os.LookupEnv(NAME) when present and leaving
// the literal "$NAME" untouched otherwise. Text containing no '$' is
// returned unchanged with ok=false, signaling the caller that no
// allocation was needed.
func Interpolate(text string) (result string, ok bool) {
	if !strings.Contains(text, "$") {
		return text, false
	}

	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(text) {
		if text[i] != '$' {
			b.WriteByte(text[i])
			i++
			continue
		}
		j := i + 1
		for j < len(text) && isNameByte(text[j]) {
			j++
		}
		if j == i+1 {
			// "$" not followed by a name character: literal.
			b.WriteByte('$')
			i++
			continue
		}
		name := text[i+1 : j]
		if val, found := os.LookupEnv(name); found {
			b.WriteString(val)
		} else {
			b.WriteString(text[i:j])
		}
		i = j
	}
	return b.String(), true
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9')
}
