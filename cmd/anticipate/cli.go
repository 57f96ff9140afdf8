package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nick/anticipate/internal/config"
	"github.com/nick/anticipate/internal/interpreter"
	"github.com/nick/anticipate/internal/script"
)

const logFileName = "anticipate.log"

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// newRootCommand builds the anticipate CLI: parse, run, and record
// subcommands, matching the original runtime's subcommand shape.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "anticipate",
		Short: "PTY scripting and asciinema recording tool",
	}

	root.AddCommand(newParseCommand())
	root.AddCommand(newRunCommand())
	root.AddCommand(newRecordCommand())

	return root
}

// commonFlags are accepted by run and record (and, for --log/--parallel,
// by parse too).
type commonFlags struct {
	logsDir    string
	parallel   bool
	configPath string
	setupPaths []string
	teardown   []string
	timeoutMs  uint64
	echo       bool
	format     bool
	printCmts  bool
}

func (f *commonFlags) register(cmd *cobra.Command, includeExecFlags bool) {
	cmd.Flags().StringVarP(&f.logsDir, "log", "l", "", "directory to write logs (also ANTICIPATE_LOG)")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "run each input script concurrently, one session per script")
	if !includeExecFlags {
		return
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to anticipate.yaml (searches the working directory when omitted)")
	cmd.Flags().StringArrayVar(&f.setupPaths, "setup", nil, "script whose instructions run before each input script, in the same session")
	cmd.Flags().StringArrayVar(&f.teardown, "teardown", nil, "script whose instructions run after each input script, in the same session")
	cmd.Flags().Uint64Var(&f.timeoutMs, "timeout", 5000, "expect timeout in milliseconds")
	cmd.Flags().BoolVar(&f.echo, "echo", envBool("ANTICIPATE_ECHO"), "mirror session I/O to stdout (also ANTICIPATE_ECHO)")
	cmd.Flags().BoolVar(&f.format, "format", envBool("ANTICIPATE_FORMAT"), "prefix mirrored I/O with read/write labels (also ANTICIPATE_FORMAT)")
	cmd.Flags().BoolVar(&f.printCmts, "print-comments", false, "execute comment lines as SendLine instead of skipping them")
}

func newParseCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "parse <files...>",
		Short: "Parse scripts and print the resolved instruction tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog := setupLogging(f.logsDir)
			defer closeLog()

			printOne := func(path string) error {
				tree, err := script.ParseFile(path)
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
				fmt.Println(headerStyle.Render(path + ":"))
				for _, inst := range tree.Instructions {
					fmt.Printf("  %s\n", describeInstruction(inst))
				}
				return nil
			}

			if !f.parallel {
				for _, path := range args {
					if err := printOne(path); err != nil {
						return err
					}
				}
				return nil
			}
			return runParallel(args, printOne)
		},
	}
	f.register(cmd, false)
	return cmd
}

func newRunCommand() *cobra.Command {
	var f commonFlags
	cmd := &cobra.Command{
		Use:   "run <files...>",
		Short: "Run scripts against a spawned PTY session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog := setupLogging(f.logsDir)
			defer closeLog()

			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			opts := optionsFromConfig(cfg, f, cmd.Flags().Changed("timeout"))

			setup, teardown, err := loadHooks(f.setupPaths, f.teardown)
			if err != nil {
				return err
			}

			runOne := func(path string) error {
				tree, err := script.ParseFile(path)
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
				spliceHooks(tree, setup, teardown)
				if err := interpreter.Run(tree, opts); err != nil {
					fmt.Println(failStyle.Render(fmt.Sprintf("FAIL %s: %v", path, err)))
					return fmt.Errorf("running %s: %w", path, err)
				}
				fmt.Println(passStyle.Render("PASS " + path))
				return nil
			}

			if !f.parallel {
				for _, path := range args {
					if err := runOne(path); err != nil {
						return err
					}
				}
				return nil
			}
			return runParallel(args, runOne)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRecordCommand() *cobra.Command {
	var (
		f          commonFlags
		overwrite  bool
		cols       uint16
		rows       uint16
		delayMs    uint64
		deviation  float64
		prompt     string
		shell      string
		typePragma bool
		trimLines  int
	)
	cmd := &cobra.Command{
		Use:     "record <output_dir> <files...>",
		Aliases: []string{"rec"},
		Short:   "Run scripts wrapped in an asciinema recording",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog := setupLogging(f.logsDir)
			defer closeLog()

			outputDir := args[0]
			inputs := args[1:]

			cfg, err := config.LoadConfig(f.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			base := optionsFromConfig(cfg, f, cmd.Flags().Changed("timeout"))
			if prompt != "" {
				base.Prompt = prompt
			}
			if !cmd.Flags().Changed("delay") && cfg.Cinema.DelayMillis > 0 {
				delayMs = cfg.Cinema.DelayMillis
			}
			if !cmd.Flags().Changed("deviation") && cfg.Cinema.Deviation > 0 {
				deviation = cfg.Cinema.Deviation
			}
			if !cmd.Flags().Changed("type-pragma") {
				typePragma = cfg.Cinema.TypePragma
			}
			if !cmd.Flags().Changed("cols") && cfg.Cinema.Cols > 0 {
				cols = cfg.Cinema.Cols
			}
			if !cmd.Flags().Changed("rows") && cfg.Cinema.Rows > 0 {
				rows = cfg.Cinema.Rows
			}
			if shell == "" {
				shell = cfg.Cinema.Shell
			}
			if shell == "" {
				shell = base.Command
			}

			setup, teardown, err := loadHooks(f.setupPaths, f.teardown)
			if err != nil {
				return err
			}

			recordOne := func(path string) error {
				tree, err := script.ParseFile(path)
				if err != nil {
					return fmt.Errorf("parsing %s: %w", path, err)
				}
				spliceHooks(tree, setup, teardown)

				outputFile := filepath.Join(outputDir, filepath.Base(path))
				outputFile = outputFile[:len(outputFile)-len(filepath.Ext(outputFile))] + ".cast"
				if !overwrite {
					if _, statErr := os.Stat(outputFile); statErr == nil {
						return fmt.Errorf("file %s already exists, use --overwrite to replace", outputFile)
					}
				}

				cinema := interpreter.CinemaOptions{
					DelayMillis: delayMs,
					Deviation:   deviation,
					TypePragma:  typePragma,
					Shell:       shell,
					Cols:        cols,
					Rows:        rows,
					OutputPath:  outputFile,
					Overwrite:   overwrite,
				}
				opts := interpreter.NewRecordingOptions(base, cinema)
				if err := interpreter.Run(tree, opts); err != nil {
					fmt.Println(failStyle.Render(fmt.Sprintf("FAIL %s: %v", path, err)))
					return fmt.Errorf("recording %s: %w", path, err)
				}
				if trimLines > 0 {
					slog.Debug("recording complete, trailing-line trim is a post-processing concern", "file", outputFile, "trim_lines", trimLines)
				}
				fmt.Println(passStyle.Render("RECORDED " + outputFile))
				return nil
			}

			if !f.parallel {
				for _, path := range inputs {
					if err := recordOne(path); err != nil {
						return err
					}
				}
				return nil
			}
			return runParallel(inputs, recordOne)
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "o", false, "overwrite existing recordings")
	cmd.Flags().Uint16Var(&cols, "cols", 80, "terminal width for the recording")
	cmd.Flags().Uint16Var(&rows, "rows", 24, "terminal height for the recording")
	cmd.Flags().Uint64Var(&delayMs, "delay", 75, "mean per-grapheme typing delay in milliseconds")
	cmd.Flags().Float64Var(&deviation, "deviation", 15.0, "standard deviation of the typing-delay Gaussian perturbation")
	cmd.Flags().StringVar(&prompt, "prompt", "", "shell prompt string (defaults to the configured prompt)")
	cmd.Flags().StringVar(&shell, "shell", "", "inner shell command run under the recorder (defaults to the exec command)")
	cmd.Flags().BoolVar(&typePragma, "type-pragma", false, "type the resolved pragma command with cadence instead of sending it verbatim")
	cmd.Flags().IntVar(&trimLines, "trim-lines", 1, "trailing lines a post-processing step should trim from the cast file")
	return cmd
}

// runParallel runs fn over each path concurrently, one goroutine per
// path and a plain sync.WaitGroup collecting results; it returns the
// first error encountered (others are still allowed to finish) so a
// partial failure among parallel scripts is still reported.
func runParallel(paths []string, fn func(string) error) error {
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			errs[i] = fn(path)
		}(i, path)
	}
	wg.Wait()

	var first error
	for _, err := range errs {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// loadHooks parses every --setup and --teardown file once, up front, so
// their instructions can be spliced into every input script without
// re-parsing per script.
func loadHooks(setupPaths, teardownPaths []string) (setup, teardown []script.Instruction, err error) {
	for _, p := range setupPaths {
		tree, err := script.ParseFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing setup script %s: %w", p, err)
		}
		setup = append(setup, tree.Instructions...)
	}
	for _, p := range teardownPaths {
		tree, err := script.ParseFile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing teardown script %s: %w", p, err)
		}
		teardown = append(teardown, tree.Instructions...)
	}
	return setup, teardown, nil
}

// spliceHooks prepends setup and appends teardown instructions to tree,
// so they run in the same session as the main script, before and after
// its own instructions respectively.
func spliceHooks(tree *script.ScriptTree, setup, teardown []script.Instruction) {
	if len(setup) == 0 && len(teardown) == 0 {
		return
	}
	combined := make([]script.Instruction, 0, len(setup)+len(tree.Instructions)+len(teardown))
	combined = append(combined, setup...)
	combined = append(combined, tree.Instructions...)
	combined = append(combined, teardown...)
	tree.Instructions = combined
}

// optionsFromConfig builds interpreter.Options from a loaded config,
// applying --timeout on top when the caller explicitly set it. Boolean
// flags are OR-ed with their config values, so they can turn a setting on
// but not off.
func optionsFromConfig(cfg *config.Config, f commonFlags, timeoutSet bool) interpreter.Options {
	opts := interpreter.Options{
		Command:       cfg.Command,
		Timeout:       time.Duration(cfg.TimeoutMillis) * time.Millisecond,
		Prompt:        cfg.Prompt,
		Echo:          cfg.Echo || f.echo,
		Format:        cfg.Format || f.format,
		PrintComments: cfg.PrintComments || f.printCmts,
	}
	if timeoutSet && f.timeoutMs > 0 {
		opts.Timeout = time.Duration(f.timeoutMs) * time.Millisecond
	}
	return opts
}

// envBool reads a boolean-equivalent environment variable the way the
// original runtime's ANTICIPATE_ECHO/ANTICIPATE_FORMAT flags do: any
// non-empty, non-"false"/"0" value is true.
func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v != ""
	}
	return b
}

// setupLogging points slog's default logger at a file under dir when dir
// is non-empty (or ANTICIPATE_LOG names a directory). It returns a close
// func that is always safe to defer.
func setupLogging(dir string) func() {
	if dir == "" {
		dir = os.Getenv("ANTICIPATE_LOG")
	}
	if dir == "" {
		return func() {}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("could not create log directory", "dir", dir, "error", err)
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("could not open log file", "error", err)
		return func() {}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, nil)))
	return func() { _ = f.Close() }
}

func describeInstruction(inst script.Instruction) string {
	switch inst.Kind {
	case script.Sleep:
		return fmt.Sprintf("Sleep(%dms)", inst.Millis)
	case script.Include:
		return fmt.Sprintf("Include(%d nested instructions)", len(inst.Tree.Instructions))
	default:
		return fmt.Sprintf("%s(%q)", inst.Kind, inst.Text)
	}
}
