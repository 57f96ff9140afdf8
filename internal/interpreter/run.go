// Package interpreter walks a parsed script tree, converting each
// instruction into PTY Session operations, including human-cadence typing
// and recording-mode orchestration.
package interpreter

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nick/anticipate/internal/codes"
	"github.com/nick/anticipate/internal/diagnose"
	"github.com/nick/anticipate/internal/needle"
	"github.com/nick/anticipate/internal/ptysession"
	"github.com/nick/anticipate/internal/script"
)

// Run executes tree against a freshly spawned PTY session configured per
// opts, and releases the session when the walk completes (or fails).
func Run(tree *script.ScriptTree, opts Options) error {
	opts = mergeDefaults(opts)

	execArgs, pragmaConsumed, err := resolveExecCommand(tree, opts)
	if err != nil {
		return err
	}

	env := buildEnv(opts)

	cols, rows := uint16(80), uint16(24)
	if opts.Cinema != nil {
		if opts.Cinema.Cols > 0 {
			cols = opts.Cinema.Cols
		}
		if opts.Cinema.Rows > 0 {
			rows = opts.Cinema.Rows
		}
	}

	session, err := ptysession.Spawn(ptysession.SpawnOptions{
		Args: execArgs,
		Env:  env,
		Cols: cols,
		Rows: rows,
	})
	if err != nil {
		return err
	}
	defer func() { _ = session.Close(2 * time.Second) }()

	if opts.Echo {
		session.SetLogger(buildLogger(opts))
	}
	session.SetExpectTimeout(opts.Timeout)

	tail := diagnose.New(0)
	session.SetTail(tail)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if opts.Cinema != nil {
		if _, err := session.Expect(needle.Literal(asciinemaReadyBanner)); err != nil {
			return annotateWithTail(err, tail)
		}
		time.Sleep(bannerSettleDelay)
	}

	// The first instruction of the top-level tree is the Pragma that was
	// either already consumed as the exec command (non-recording mode) or
	// must now be executed inside the recorded shell (recording mode).
	instructions := tree.Instructions
	if len(instructions) > 0 && instructions[0].Kind == script.Pragma {
		if opts.Cinema != nil && !pragmaConsumed {
			if err := runPragmaInCinema(session, tree.Path, instructions[0].Text, opts, rng); err != nil {
				return annotateWithTail(err, tail)
			}
		}
		instructions = instructions[1:]
	}

	if err := walk(session, instructions, opts, rng); err != nil {
		return annotateWithTail(err, tail)
	}

	eot, _ := codes.Resolve("EOT")
	_ = session.Send([]byte{eot})
	return nil
}

// annotateWithTail attaches the tail buffer's recent bytes to session
// errors that end a run (timeout or unexpected EOF), so the returned
// error tells a human what the child printed right before failing.
// Other errors are returned unchanged.
func annotateWithTail(err error, tail *diagnose.TailBuffer) error {
	var timeoutErr *ptysession.ExpectTimeoutError
	var eofErr *ptysession.EofError
	switch {
	case errors.As(err, &timeoutErr), errors.As(err, &eofErr):
		if snap := tail.Snapshot(); snap != "" {
			return fmt.Errorf("%w\nlast output:\n%s", err, snap)
		}
	}
	return err
}

// resolveExecCommand determines the argv to spawn. If the first
// instruction is a Pragma and this is not recording mode, the pragma
// command (resolved relative to the script file's directory) is the exec
// command and pragmaConsumed is true; otherwise opts.Command is used.
func resolveExecCommand(tree *script.ScriptTree, opts Options) (args []string, pragmaConsumed bool, err error) {
	if len(tree.Instructions) > 0 && tree.Instructions[0].Kind == script.Pragma && opts.Cinema == nil {
		resolved := resolvePragmaPath(tree.Path, tree.Instructions[0].Text)
		args, err := splitCommand(resolved)
		if err != nil {
			return nil, false, err
		}
		return args, true, nil
	}
	args, err = splitCommand(opts.Command)
	if err != nil {
		return nil, false, err
	}
	return args, false, nil
}

// resolvePragmaPath resolves a pragma's command line relative to the
// directory of the script file it came from, leaving the rest of the
// command line (any arguments after the executable) untouched.
func resolvePragmaPath(scriptPath, pragmaLine string) string {
	exe, rest, found := strings.Cut(strings.TrimSpace(pragmaLine), " ")
	if !filepath.IsAbs(exe) && scriptPath != "" {
		candidate := filepath.Join(filepath.Dir(scriptPath), exe)
		if _, statErr := os.Stat(candidate); statErr == nil {
			exe = candidate
		}
	}
	if found {
		return exe + " " + rest
	}
	return exe
}

// runPragmaInCinema executes the resolved pragma command inside the
// recorded shell: typed if cinema.TypePragma is set, otherwise sent as a
// plain line. The command is resolved relative to scriptPath's directory
// the same way resolveExecCommand resolves it outside recording mode.
func runPragmaInCinema(session *ptysession.Session, scriptPath, pragmaLine string, opts Options, rng *rand.Rand) error {
	resolved := resolvePragmaPath(scriptPath, pragmaLine)
	if opts.Cinema.TypePragma {
		return typeLine(session, resolved, *opts.Cinema, rng)
	}
	return session.SendLine([]byte(resolved))
}

// walk executes instructions depth-first, pausing briefly between each to
// give the child time to produce output before the next expect.
func walk(session *ptysession.Session, instructions []script.Instruction, opts Options, rng *rand.Rand) error {
	for _, inst := range instructions {
		if err := dispatch(session, inst, opts, rng); err != nil {
			return err
		}
		time.Sleep(interInstructionPause)
	}
	return nil
}

func dispatch(session *ptysession.Session, inst script.Instruction, opts Options, rng *rand.Rand) error {
	switch inst.Kind {
	case script.Pragma:
		// Only ever legal as the first instruction of the top-level
		// tree, already handled by Run before walk begins.
		return nil

	case script.Sleep:
		time.Sleep(time.Duration(inst.Millis) * time.Millisecond)
		return nil

	case script.Send:
		return session.Send([]byte(inst.Text))

	case script.SendLine:
		text, _ := script.Interpolate(inst.Text)
		if opts.Cinema != nil {
			return typeLine(session, text, *opts.Cinema, rng)
		}
		return session.SendLine([]byte(text))

	case script.SendControl:
		b, err := codes.Resolve(inst.Text)
		if err != nil {
			return err
		}
		return session.Send([]byte{b})

	case script.Expect:
		_, err := session.Expect(needle.Literal(inst.Text))
		return err

	case script.Regex:
		re, err := needle.NewRegex(inst.Text)
		if err != nil {
			return err
		}
		_, err = session.Expect(re)
		return err

	case script.ReadLine:
		_, err := session.Expect(needle.Literal("\n"))
		return err

	case script.Wait:
		_, err := session.Expect(needle.Literal(opts.Prompt))
		return err

	case script.Clear:
		return dispatch(session, script.Instruction{Kind: script.SendLine, Text: "clear"}, opts, rng)

	case script.Flush:
		return session.Flush()

	case script.Comment:
		if !opts.PrintComments {
			return nil
		}
		return dispatch(session, script.Instruction{Kind: script.SendLine, Text: inst.Text}, opts, rng)

	case script.Include:
		return walk(session, inst.Tree.Instructions, opts, rng)

	default:
		return fmt.Errorf("unhandled instruction kind %v", inst.Kind)
	}
}

func mergeDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Command == "" {
		opts.Command = def.Command
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.Prompt == "" {
		opts.Prompt = def.Prompt
	}
	return opts
}

// buildEnv constructs the child's environment: a copy of the process
// environment with PS1 overridden to opts.Prompt, and in recording mode
// SHELL overridden to combine the prompt and the inner shell command. This
// is scoped to the child process rather than mutated via os.Setenv on the
// whole process, removing the race a parallel recording run would
// otherwise hit.
func buildEnv(opts Options) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+2)
	for _, kv := range base {
		if strings.HasPrefix(kv, "PS1=") || strings.HasPrefix(kv, "SHELL=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "PS1="+opts.Prompt)
	if opts.Cinema != nil {
		env = append(env, fmt.Sprintf("SHELL=PS1='%s' %s", opts.Prompt, opts.Cinema.Shell))
	}
	return env
}

func buildLogger(opts Options) ptysession.LogWriter {
	var sink interface {
		Write([]byte) (int, error)
	} = os.Stdout
	if opts.Stdout != nil {
		sink = opts.Stdout
	}
	if opts.Format {
		if f, ok := sink.(*os.File); ok {
			return ptysession.NewPrefixedLogWriter(f)
		}
		return ptysession.NewPrefixedLogWriter(sinkAdapter{sink})
	}
	return &ptysession.TeeLogWriter{Sink: sinkAdapter{sink}}
}

// sinkAdapter lets any io.Writer-shaped value satisfy io.Writer for the
// log writers, without importing io solely for the interface name.
type sinkAdapter struct {
	w interface {
		Write([]byte) (int, error)
	}
}

func (s sinkAdapter) Write(p []byte) (int, error) { return s.w.Write(p) }
