package ptysession

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// LogWriter observes bytes flowing through a Session without being able to
// influence or fail the I/O it observes: a failed log write is always
// swallowed by the caller, never propagated (see NoOpLogWriter for the
// degenerate case).
type LogWriter interface {
	LogRead(data []byte)
	LogWrite(data []byte)
}

// NoOpLogWriter observes nothing. It is the Session default.
type NoOpLogWriter struct{}

func (NoOpLogWriter) LogRead(data []byte)  {}
func (NoOpLogWriter) LogWrite(data []byte) {}

// TeeLogWriter copies raw bytes to Sink unchanged, interleaving reads and
// writes exactly as they occurred.
type TeeLogWriter struct {
	Sink io.Writer
}

func (t *TeeLogWriter) LogRead(data []byte)  { t.write(data) }
func (t *TeeLogWriter) LogWrite(data []byte) { t.write(data) }

func (t *TeeLogWriter) write(data []byte) {
	if t.Sink == nil || len(data) == 0 {
		return
	}
	_, _ = t.Sink.Write(data)
}

// PrefixedLogWriter writes a human-readable "read: ..." / "write: ..." line
// per call, falling back to a debug-bytes rendering when the data is not
// valid UTF-8. When Sink is a terminal, lines are styled with lipgloss.
type PrefixedLogWriter struct {
	Sink io.Writer

	readStyle  lipgloss.Style
	writeStyle lipgloss.Style
	styled     bool
}

// NewPrefixedLogWriter builds a PrefixedLogWriter over sink, detecting
// whether sink is a terminal to decide if styling should be applied.
func NewPrefixedLogWriter(sink io.Writer) *PrefixedLogWriter {
	w := &PrefixedLogWriter{Sink: sink}
	if f, ok := sink.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w.styled = true
		w.readStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		w.writeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
	return w
}

func (p *PrefixedLogWriter) LogRead(data []byte) { p.log("read", data, p.readStyle) }
func (p *PrefixedLogWriter) LogWrite(data []byte) { p.log("write", data, p.writeStyle) }

func (p *PrefixedLogWriter) log(target string, data []byte, style lipgloss.Style) {
	if p.Sink == nil {
		return
	}
	var line string
	if utf8.Valid(data) {
		line = fmt.Sprintf("%s: %q", target, string(data))
	} else {
		line = fmt.Sprintf("%s:(bytes): %v", target, data)
	}
	if p.styled {
		line = style.Render(line)
	}
	_, _ = fmt.Fprintln(p.Sink, line)
}
