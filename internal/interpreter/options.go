package interpreter

import (
	"fmt"
	"time"
)

// CinemaOptions configures recording mode: the external asciinema command
// this run wraps, and the human-cadence typing it drives.
type CinemaOptions struct {
	// DelayMillis is the mean per-grapheme typing delay.
	DelayMillis uint64
	// Deviation is the standard deviation of the Gaussian perturbation
	// applied to DelayMillis.
	Deviation float64
	// TypePragma, if true, types the resolved pragma command with the
	// same cadence as SendLine instead of sending it verbatim.
	TypePragma bool
	// Shell is the inner command run under the recorder, combined with
	// Prompt into the child's SHELL environment variable.
	Shell string
	Cols  uint16
	Rows  uint16

	// OutputPath is the target .cast file.
	OutputPath string
	Overwrite  bool
}

// asciinemaReadyBanner is the literal text the asciinema recorder prints
// once it is ready to forward input to the wrapped shell.
const asciinemaReadyBanner = `asciinema: press <ctrl-d> or type "exit" when you're done`

// bannerSettleDelay is the pause after the ready banner before any
// script-driven bytes are sent, letting the inner shell's first prompt
// flush.
const bannerSettleDelay = 50 * time.Millisecond

// interInstructionPause is the pause applied between every instruction so
// the child has time to produce output before the next expect.
const interInstructionPause = 20 * time.Millisecond

// Options configures a single interpreter run.
type Options struct {
	// Command is the default exec command, argv form resolved by
	// splitCommand. Defaults to "sh -noprofile -norc".
	Command string
	// Timeout bounds every Expect call. Defaults to 5s.
	Timeout time.Duration
	// Cinema is non-nil in recording mode.
	Cinema *CinemaOptions
	// Prompt is the shell prompt string threaded into the child's PS1.
	Prompt string
	// Echo mirrors session I/O to Stdout when true.
	Echo bool
	// Format, combined with Echo, selects prefixed-debug output instead
	// of a raw tee.
	Format bool
	// PrintComments executes Comment instructions as SendLine when true.
	PrintComments bool
	// ID optionally tags diagnostic output for this run.
	ID string
	// Stdout receives mirrored I/O when Echo is set; defaults to
	// os.Stdout if nil.
	Stdout interface {
		Write([]byte) (int, error)
	}
}

// DefaultOptions returns the interpreter's built-in defaults, matching the
// original runtime's non-recording InterpreterOptions.
func DefaultOptions() Options {
	return Options{
		Command: "sh -noprofile -norc",
		Timeout: 5 * time.Second,
		Prompt:  "➜ ",
	}
}

// NewRecordingOptions builds Options for recording mode: the exec command
// becomes the asciinema wrapper, and cinema carries the typing-cadence and
// inner-shell configuration.
func NewRecordingOptions(base Options, cinema CinemaOptions) Options {
	opts := base
	opts.Cinema = &cinema
	args := []string{"asciinema", "rec", cinema.OutputPath}
	if cinema.Overwrite {
		args = append(args, "--overwrite")
	}
	args = append(args, fmt.Sprintf("--rows=%d", cinema.Rows), fmt.Sprintf("--cols=%d", cinema.Cols))
	opts.Command = joinArgs(args)
	return opts
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
