package interpreter

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/nick/anticipate/internal/script"
)

func TestSplitCommandQuoting(t *testing.T) {
	args, err := splitCommand(`sh -c "echo hi"`)
	if err != nil {
		t.Fatalf("splitCommand: %v", err)
	}
	want := []string{"sh", "-c", "echo hi"}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestSplitCommandUnterminatedQuote(t *testing.T) {
	if _, err := splitCommand(`sh -c "echo`); err == nil {
		t.Fatal("expected CommandParsingError")
	}
}

func TestTypingDelayNeverNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		d := typingDelay(5, 50, rng)
		if d < 0 {
			t.Fatalf("typingDelay produced negative duration: %v", d)
		}
	}
}

func TestTypingDelayMeanRoughlyCentered(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var total time.Duration
	const n = 2000
	for i := 0; i < n; i++ {
		total += typingDelay(80, 5, rng)
	}
	avg := total.Milliseconds() / n
	if avg < 60 || avg > 100 {
		t.Errorf("average delay %dms drifted too far from mean 80ms", avg)
	}
}

func TestResolvePragmaPathKeepsTrailingArgs(t *testing.T) {
	got := resolvePragmaPath("/scripts/demo.ant", "nonexistent-binary --flag value")
	if !strings.HasSuffix(got, "--flag value") {
		t.Errorf("resolvePragmaPath dropped trailing args: %q", got)
	}
}

func TestBuildEnvOverridesPS1(t *testing.T) {
	opts := Options{Prompt: "$ "}
	env := buildEnv(opts)
	found := false
	for _, kv := range env {
		if kv == "PS1=$ " {
			found = true
		}
	}
	if !found {
		t.Error("expected PS1 override in child env")
	}
}

func TestBuildEnvCinemaSetsShell(t *testing.T) {
	opts := Options{Prompt: "$ ", Cinema: &CinemaOptions{Shell: "sh -noprofile -norc"}}
	env := buildEnv(opts)
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "SHELL=") && strings.Contains(kv, "sh -noprofile -norc") {
			found = true
		}
	}
	if !found {
		t.Error("expected SHELL override combining prompt and inner shell in cinema mode")
	}
}

func TestResolveExecCommandUsesPragmaWhenNotRecording(t *testing.T) {
	tree := &script.ScriptTree{
		Path: "/scripts/demo.ant",
		Instructions: []script.Instruction{
			{Kind: script.Pragma, Text: "sh -c 'echo hi'"},
		},
	}
	args, consumed, err := resolveExecCommand(tree, Options{Command: "sh -noprofile -norc"})
	if err != nil {
		t.Fatalf("resolveExecCommand: %v", err)
	}
	if !consumed {
		t.Error("expected pragma to be consumed as exec command")
	}
	if args[0] != "sh" {
		t.Errorf("args = %v, want first element sh", args)
	}
}

func TestResolveExecCommandFallsBackInCinemaMode(t *testing.T) {
	tree := &script.ScriptTree{
		Instructions: []script.Instruction{
			{Kind: script.Pragma, Text: "sh -c 'echo hi'"},
		},
	}
	opts := Options{
		Command: "asciinema rec out.cast",
		Cinema:  &CinemaOptions{Shell: "sh"},
	}
	args, consumed, err := resolveExecCommand(tree, opts)
	if err != nil {
		t.Fatalf("resolveExecCommand: %v", err)
	}
	if consumed {
		t.Error("pragma must not be consumed as the exec command in recording mode")
	}
	if args[0] != "asciinema" {
		t.Errorf("args = %v, want asciinema wrapper", args)
	}
}
