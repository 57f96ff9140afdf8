package needle

import "testing"

func TestLiteralEmptyMatchesAtZero(t *testing.T) {
	matches := Literal("").Check([]byte("anything"), false)
	if len(matches) != 1 || matches[0] != (Match{Start: 0, End: 0}) {
		t.Fatalf("empty literal should match at (0,0), got %v", matches)
	}
}

func TestLiteralNonOverlapping(t *testing.T) {
	matches := Literal("ab").Check([]byte("ababab"), false)
	want := []Match{{0, 2}, {2, 4}, {4, 6}}
	if len(matches) != len(want) {
		t.Fatalf("got %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, matches[i], want[i])
		}
	}
}

func TestByteCount(t *testing.T) {
	n := ByteCount(3)
	if m := n.Check([]byte("ab"), false); m != nil {
		t.Fatalf("expected no match for short buffer, got %v", m)
	}
	m := n.Check([]byte("abcd"), false)
	if len(m) != 1 || m[0] != (Match{0, 3}) {
		t.Fatalf("got %v, want single (0,3) match", m)
	}
}

func TestRegexEagerMax(t *testing.T) {
	re, err := NewRegex(`\d+`)
	if err != nil {
		t.Fatalf("NewRegex: %v", err)
	}
	matches := re.Check([]byte("abc123"), false)
	if len(matches) != 1 {
		t.Fatalf("got %v", matches)
	}
	if got := RightMostIndex(matches); got != 6 {
		t.Errorf("RightMostIndex = %d, want 6 (full \"123\" match)", got)
	}
}

func TestRegexInvalidPattern(t *testing.T) {
	_, err := NewRegex(`(unterminated`)
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEOFOnlyMatchesAtEOF(t *testing.T) {
	if m := (EOF{}).Check([]byte("abc"), false); m != nil {
		t.Fatalf("expected no match without eof, got %v", m)
	}
	m := (EOF{}).Check([]byte("abc"), true)
	if len(m) != 1 || m[0] != (Match{0, 3}) {
		t.Fatalf("got %v, want (0,3)", m)
	}
}

func TestAnyUnionOfAllInnerMatches(t *testing.T) {
	a := Any{Literal("a"), Literal("b")}
	matches := a.Check([]byte("ab"), false)
	if len(matches) != 2 {
		t.Fatalf("Any should return matches from every inner needle, got %v", matches)
	}
}

func TestRightMostIndexEmpty(t *testing.T) {
	if got := RightMostIndex(nil); got != -1 {
		t.Errorf("RightMostIndex(nil) = %d, want -1", got)
	}
}
