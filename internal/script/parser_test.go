package script

import "testing"

func TestParseFidelity(t *testing.T) {
	source := "#!sh\n#$ sendline foo\nbar\n#$ expect baz\n"
	instructions, includes, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(includes) != 0 {
		t.Fatalf("expected no includes, got %v", includes)
	}
	want := []Instruction{
		{Kind: Pragma, Text: "sh"},
		{Kind: SendLine, Text: "foo"},
		{Kind: SendLine, Text: "bar"},
		{Kind: Expect, Text: "baz"},
	}
	if len(instructions) != len(want) {
		t.Fatalf("got %+v, want %+v", instructions, want)
	}
	for i := range want {
		if instructions[i] != want[i] {
			t.Errorf("instruction %d = %+v, want %+v", i, instructions[i], want[i])
		}
	}
}

func TestParseTextIsVerbatimSendLine(t *testing.T) {
	instructions, _, err := Parse("plain text line\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(instructions) != 1 || instructions[0].Kind != SendLine || instructions[0].Text != "plain text line" {
		t.Fatalf("got %+v", instructions)
	}
}

func TestParsePragmaNotFirstFails(t *testing.T) {
	_, _, err := Parse("hello\n#!sh\n")
	if _, ok := err.(*PragmaFirstError); !ok {
		t.Fatalf("got %T (%v), want *PragmaFirstError", err, err)
	}
}

func TestParseUnknownDirective(t *testing.T) {
	_, _, err := Parse("#$ bogus thing\n")
	if _, ok := err.(*UnknownInstructionError); !ok {
		t.Fatalf("got %T, want *UnknownInstructionError", err)
	}
}

func TestParseSleepRequiresNumber(t *testing.T) {
	_, _, err := Parse("#$ sleep notanumber\n")
	if _, ok := err.(*NumberExpectedError); !ok {
		t.Fatalf("got %T, want *NumberExpectedError", err)
	}
}

func TestParseSleepValid(t *testing.T) {
	instructions, _, err := Parse("#$ sleep 150\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(instructions) != 1 || instructions[0].Kind != Sleep || instructions[0].Millis != 150 {
		t.Fatalf("got %+v", instructions)
	}
}

func TestParseIncludeProducesSidecarNotInstruction(t *testing.T) {
	instructions, includes, err := Parse("line1\n#$ include other.sh\nline3\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(instructions) != 2 {
		t.Fatalf("expected 2 instructions (includes spliced separately), got %+v", instructions)
	}
	if len(includes) != 1 || includes[0].Path != "other.sh" || includes[0].Index != 1 {
		t.Fatalf("got %+v", includes)
	}
}

func TestParseCommentTolerantOfLeadingWhitespace(t *testing.T) {
	instructions, _, err := Parse("   # a comment\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(instructions) != 1 || instructions[0].Kind != Comment {
		t.Fatalf("got %+v", instructions)
	}
}

func TestInterpolateNoDollarIsUnchanged(t *testing.T) {
	s, ok := Interpolate("no variables here")
	if ok {
		t.Error("expected ok=false when no allocation was needed")
	}
	if s != "no variables here" {
		t.Errorf("got %q", s)
	}
}

func TestInterpolateKnownVar(t *testing.T) {
	t.Setenv("ANTICIPATE_TEST_VAR", "value")
	s, ok := Interpolate("hello $ANTICIPATE_TEST_VAR world")
	if !ok {
		t.Error("expected ok=true")
	}
	if s != "hello value world" {
		t.Errorf("got %q", s)
	}
}

func TestInterpolateUnknownVarLeftLiteral(t *testing.T) {
	s, _ := Interpolate("$DEFINITELY_NOT_SET_XYZ")
	if s != "$DEFINITELY_NOT_SET_XYZ" {
		t.Errorf("got %q", s)
	}
}

func TestInterpolateIdempotent(t *testing.T) {
	t.Setenv("ANTICIPATE_TEST_VAR", "plainvalue")
	once, _ := Interpolate("$ANTICIPATE_TEST_VAR")
	twice, _ := Interpolate(once)
	if once != twice {
		t.Errorf("interpolate not idempotent: %q vs %q", once, twice)
	}
}
