// Package needle implements the pattern-matching strategies consumed by a
// PTY session's expect/check operations: pure, stateless checks against a
// byte buffer plus an end-of-stream flag.
package needle

import "regexp"

// Match is a contiguous half-open byte range [Start, End) within the buffer
// that was searched.
type Match struct {
	Start int
	End   int
}

// Needle tests a buffer (plus whether the stream has reached EOF) and
// reports zero or more matches. Implementations must be pure: no I/O, no
// hidden state, safe to call repeatedly against growing buffers.
type Needle interface {
	Check(buf []byte, eof bool) []Match
	String() string
}

// RightMostIndex returns the maximum End across matches, or -1 if matches
// is empty. This governs how much of a session's retention buffer is
// consumed on a successful expect: the latest match wins.
func RightMostIndex(matches []Match) int {
	idx := -1
	for _, m := range matches {
		if m.End > idx {
			idx = m.End
		}
	}
	return idx
}

// Literal matches every non-overlapping occurrence of a fixed string.
type Literal string

func (l Literal) String() string { return "Literal(" + string(l) + ")" }

func (l Literal) Check(buf []byte, eof bool) []Match {
	s := string(l)
	if s == "" {
		return []Match{{Start: 0, End: 0}}
	}
	var matches []Match
	offset := 0
	for {
		idx := indexString(buf[offset:], s)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(s)
		matches = append(matches, Match{Start: start, End: end})
		offset = end
	}
	return matches
}

func indexString(buf []byte, s string) int {
	n := len(s)
	if n == 0 || n > len(buf) {
		return -1
	}
	for i := 0; i+n <= len(buf); i++ {
		if string(buf[i:i+n]) == s {
			return i
		}
	}
	return -1
}

// ByteCount matches once the buffer has reached at least N bytes, claiming
// exactly the first N.
type ByteCount int

func (b ByteCount) String() string { return "ByteCount" }

func (b ByteCount) Check(buf []byte, eof bool) []Match {
	n := int(b)
	if len(buf) >= n {
		return []Match{{Start: 0, End: n}}
	}
	return nil
}

// Regex matches every non-overlapping occurrence of a compiled regular
// expression.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern, returning a RegexParsingError on failure.
func NewRegex(pattern string) (Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regex{}, &RegexParsingError{Pattern: pattern, Cause: err}
	}
	return Regex{re: re}, nil
}

func (r Regex) String() string {
	if r.re == nil {
		return "Regex(nil)"
	}
	return "Regex(" + r.re.String() + ")"
}

func (r Regex) Check(buf []byte, eof bool) []Match {
	locs := r.re.FindAllIndex(buf, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{Start: loc[0], End: loc[1]}
	}
	return matches
}

// RegexParsingError reports an invalid regex pattern.
type RegexParsingError struct {
	Pattern string
	Cause   error
}

func (e *RegexParsingError) Error() string {
	return "regex parsing: " + e.Pattern + ": " + e.Cause.Error()
}

func (e *RegexParsingError) Unwrap() error { return e.Cause }

// EOF matches the whole buffer, but only once the stream has signaled
// end-of-stream.
type EOF struct{}

func (EOF) String() string { return "Eof" }

func (EOF) Check(buf []byte, eof bool) []Match {
	if eof {
		return []Match{{Start: 0, End: len(buf)}}
	}
	return nil
}

// Any is a composite needle: the union of matches from every inner needle,
// in the order the inner needles are given. A match from one inner needle
// does not suppress matches from another, so Any([a, b]) against a buffer
// where both a and b match yields both.
type Any []Needle

func (a Any) String() string { return "Any" }

func (a Any) Check(buf []byte, eof bool) []Match {
	var matches []Match
	for _, n := range a {
		matches = append(matches, n.Check(buf, eof)...)
	}
	return matches
}
