// Package ptysession implements a duplex, non-blocking byte-stream session
// over a child process spawned under a pseudo-terminal: a retention buffer
// that allows re-scanning without losing bytes, eager and lazy expect
// strategies governed by a timeout, and a check/is_matched pair for
// non-blocking polling.
package ptysession

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/nick/anticipate/internal/needle"
)

const defaultExpectTimeout = 5 * time.Second

// pollInterval bounds how long a would-block read path sleeps between
// retries while polling a non-blocking descriptor.
const pollInterval = 4 * time.Millisecond

// Captures is the result of a successful expect or check: the bytes
// consumed, and every match range reported by the needle.
type Captures struct {
	consumed []byte
	matches  []needle.Match
}

// Before returns the bytes preceding the first match.
func (c Captures) Before() []byte {
	if len(c.matches) == 0 {
		return c.consumed
	}
	return c.consumed[:c.matches[0].Start]
}

// Get returns the bytes of the i-th match.
func (c Captures) Get(i int) []byte {
	m := c.matches[i]
	return c.consumed[m.Start:m.End]
}

// Matches returns every match range reported for this capture.
func (c Captures) Matches() []needle.Match { return c.matches }

// Session is a duplex byte-stream session over a child spawned under a
// pseudo-terminal.
type Session struct {
	cmd    *exec.Cmd
	master *os.File

	logger LogWriter
	tail   interface{ Write([]byte) (int, error) }

	mu            sync.Mutex
	retention     []byte
	eof           bool
	expectTimeout time.Duration
	lazyMode      bool
}

// SpawnOptions configures Spawn.
type SpawnOptions struct {
	// Args is the argv form of the command to spawn.
	Args []string
	// Env, if non-nil, fully replaces the child's environment. If nil,
	// the child inherits os.Environ().
	Env []string
	Dir string
	// Cols and Rows set the initial PTY window size; zero means use the
	// pty package's default.
	Cols uint16
	Rows uint16
}

// Spawn starts a child process under a new pseudo-terminal and returns a
// Session bound to it.
func Spawn(opts SpawnOptions) (*Session, error) {
	if len(opts.Args) == 0 {
		return nil, &BadArgumentsError{Raw: ""}
	}
	cmd := exec.Command(opts.Args[0], opts.Args[1:]...)
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	var size *pty.Winsize
	if opts.Cols > 0 && opts.Rows > 0 {
		size = &pty.Winsize{Cols: opts.Cols, Rows: opts.Rows}
	}

	master, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, &IOError{Cause: err}
	}
	if runtime.GOOS != "windows" {
		if err := setRawMode(master); err != nil {
			_ = master.Close()
			_ = cmd.Process.Kill()
			return nil, &IOError{Cause: err}
		}
	}

	return &Session{
		cmd:           cmd,
		master:        master,
		logger:        NoOpLogWriter{},
		expectTimeout: defaultExpectTimeout,
	}, nil
}

// SetLogger attaches a LogWriter that observes every successful read and
// write. Pass NoOpLogWriter{} to detach.
func (s *Session) SetLogger(l LogWriter) {
	if l == nil {
		l = NoOpLogWriter{}
	}
	s.logger = l
}

// SetTail attaches a diagnostic sink fed every successfully-read byte,
// independent of the logger.
func (s *Session) SetTail(w interface{ Write([]byte) (int, error) }) {
	s.tail = w
}

// SetExpectTimeout overrides the deadline used by Expect. There is no
// "disable timeout" value; callers wanting an effectively unbounded wait
// should pass a very large duration.
func (s *Session) SetExpectTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectTimeout = d
}

// SetExpectLazy toggles the match strategy: lazy (minimal/first match,
// single-byte reads) when true, eager (maximal match, bulk reads) when
// false (the default).
func (s *Session) SetExpectLazy(lazy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lazyMode = lazy
}

// GetProcess returns the underlying child process handle.
func (s *Session) GetProcess() *os.Process { return s.cmd.Process }

// GetStream returns the underlying PTY master file.
func (s *Session) GetStream() *os.File { return s.master }

// IsAlive reports whether the child process is still running, probed via
// a signal-0 send.
func (s *Session) IsAlive() bool {
	if s.cmd.Process == nil {
		return false
	}
	return s.cmd.Process.Signal(syscall.Signal(0)) == nil
}

// Send writes bytes to the child's stdin verbatim.
func (s *Session) Send(data []byte) error {
	if _, err := s.master.Write(data); err != nil {
		return &IOError{Cause: err}
	}
	s.logger.LogWrite(data)
	return nil
}

// SendLine writes data followed by the platform line ending.
func (s *Session) SendLine(data []byte) error {
	nl := "\n"
	if runtime.GOOS == "windows" {
		nl = "\r\n"
	}
	buf := make([]byte, 0, len(data)+len(nl))
	buf = append(buf, data...)
	buf = append(buf, nl...)
	return s.Send(buf)
}

// Flush forces any buffered writer state to the OS stream. The PTY master
// is unbuffered, so this is a no-op retained for interface symmetry with
// the interpreter's Flush instruction.
func (s *Session) Flush() error { return nil }

// TryRead attempts a single non-blocking read into buf, returning the
// number of bytes read (which may be zero on would-block).
func (s *Session) TryRead(buf []byte) (int, error) {
	n, _, err := s.readOnce(buf)
	return n, err
}

// IsEmpty reports whether the retention buffer currently holds no bytes.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retention) == 0
}

// readOnce performs the mandatory non-blocking dance: set non-blocking,
// attempt one read, always restore blocking before returning, even on
// error, because duplicated file descriptors referring to the same PTY
// share the O_NONBLOCK flag with any other process holding the descriptor
// open.
func (s *Session) readOnce(buf []byte) (n int, eof bool, err error) {
	fd := int(s.master.Fd())
	if err := setNonBlocking(fd, true); err != nil {
		return 0, false, &IOError{Cause: err}
	}
	defer func() {
		_ = setNonBlocking(fd, false)
	}()

	n, readErr := s.master.Read(buf)
	if readErr == nil {
		if n > 0 {
			s.logger.LogRead(buf[:n])
			if s.tail != nil {
				_, _ = s.tail.Write(buf[:n])
			}
		}
		return n, false, nil
	}
	if isWouldBlock(readErr) {
		return 0, false, nil
	}
	if isEOF(readErr) {
		return n, true, nil
	}
	return n, false, &IOError{Cause: readErr}
}

// fillRetention performs one non-blocking read of up to chunk bytes and
// appends whatever was read to the retention buffer, reporting whether EOF
// was observed on this attempt.
func (s *Session) fillRetention(chunk int) (gotEOF bool, err error) {
	buf := make([]byte, chunk)
	n, eof, err := s.readOnce(buf)
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.mu.Lock()
		s.retention = append(s.retention, buf[:n]...)
		s.mu.Unlock()
	}
	if eof {
		s.mu.Lock()
		s.eof = true
		s.mu.Unlock()
	}
	return eof, nil
}

// consume drains the retention buffer up to idx bytes and returns the
// drained prefix.
func (s *Session) consume(idx int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx > len(s.retention) {
		idx = len(s.retention)
	}
	out := make([]byte, idx)
	copy(out, s.retention[:idx])
	s.retention = s.retention[idx:]
	return out
}

func (s *Session) snapshot() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(s.retention))
	copy(buf, s.retention)
	return buf, s.eof
}

// Expect blocks until n matches on the retention buffer (refilled from the
// stream as needed), using the eager or lazy strategy per SetExpectLazy,
// bounded by the configured expect timeout.
func (s *Session) Expect(n needle.Needle) (Captures, error) {
	s.mu.Lock()
	lazy := s.lazyMode
	timeout := s.expectTimeout
	s.mu.Unlock()

	if lazy {
		return s.expectLazy(n, timeout)
	}
	return s.expectEager(n, timeout)
}

// expectEager repeatedly fills retention with as many bytes as a
// non-blocking read yields, testing the needle against the whole buffer
// each iteration, and consumes up to the rightmost match end on success:
// a maximal-match (greedy) strategy.
func (s *Session) expectEager(n needle.Needle, timeout time.Duration) (Captures, error) {
	deadline := time.Now().Add(timeout)
	for {
		buf, eof := s.snapshot()
		matches := n.Check(buf, eof)
		if len(matches) > 0 {
			idx := needle.RightMostIndex(matches)
			consumed := s.consume(idx)
			return Captures{consumed: consumed, matches: matches}, nil
		}
		if eof {
			return Captures{}, &EofError{}
		}
		if time.Now().After(deadline) {
			return Captures{}, &ExpectTimeoutError{Timeout: timeout, NeedleDesc: n.String()}
		}
		gotEOF, err := s.fillRetention(4096)
		if err != nil {
			return Captures{}, err
		}
		if !gotEOF {
			time.Sleep(pollInterval)
		}
	}
}

// expectLazy grows the searchable prefix one byte at a time so a minimal
// match is reported, and so a single-byte EOF signal is not lost by a bulk
// read on platforms that only surface EOF once.
func (s *Session) expectLazy(n needle.Needle, timeout time.Duration) (Captures, error) {
	deadline := time.Now().Add(timeout)
	for {
		buf, eof := s.snapshot()
		matches := n.Check(buf, eof)
		if len(matches) > 0 {
			idx := needle.RightMostIndex(matches)
			consumed := s.consume(idx)
			return Captures{consumed: consumed, matches: matches}, nil
		}
		if eof {
			return Captures{}, &EofError{}
		}
		if time.Now().After(deadline) {
			return Captures{}, &ExpectTimeoutError{Timeout: timeout, NeedleDesc: n.String()}
		}
		gotEOF, err := s.fillRetention(1)
		if err != nil {
			return Captures{}, err
		}
		if !gotEOF {
			time.Sleep(pollInterval)
		}
	}
}

// Check performs one non-blocking pass: a single read attempt followed by
// one needle test. It never times out; it returns empty Captures if there
// is no match and no EOF.
func (s *Session) Check(n needle.Needle) (Captures, error) {
	if _, err := s.fillRetention(4096); err != nil {
		return Captures{}, err
	}
	buf, eof := s.snapshot()
	matches := n.Check(buf, eof)
	if len(matches) == 0 {
		if eof {
			return Captures{}, &EofError{}
		}
		return Captures{}, nil
	}
	idx := needle.RightMostIndex(matches)
	consumed := s.consume(idx)
	return Captures{consumed: consumed, matches: matches}, nil
}

// IsMatched reports whether n currently matches, without consuming
// retention. Documented hazard: for the EOF sentinel, a subsequent
// operation may lose the EOF signal, since the underlying stream surfaces
// EOF only once on some platforms. This is best-effort, not guaranteed.
func (s *Session) IsMatched(n needle.Needle) (bool, error) {
	if _, err := s.fillRetention(4096); err != nil {
		return false, err
	}
	buf, eof := s.snapshot()
	matches := n.Check(buf, eof)
	if len(matches) == 0 && eof {
		return false, &EofError{}
	}
	return len(matches) > 0, nil
}

// Close terminates the child (SIGTERM, escalating to SIGKILL after a
// grace period) and releases the PTY master.
func (s *Session) Close(grace time.Duration) error {
	if grace <= 0 {
		grace = 2 * time.Second
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan error, 1)
		go func() { done <- s.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(grace):
			_ = s.cmd.Process.Kill()
			<-done
		}
	}
	return s.master.Close()
}

func isWouldBlock(err error) bool {
	return errorIsOneOf(err, syscall.EAGAIN, syscall.EWOULDBLOCK)
}

func isEOF(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "input/output error") ||
		strings.Contains(msg, "EOF") ||
		errorIsOneOf(err, syscall.EIO)
}

func errorIsOneOf(err error, targets ...syscall.Errno) bool {
	var errno syscall.Errno
	if pathErr, ok := err.(*os.PathError); ok {
		if e, ok := pathErr.Err.(syscall.Errno); ok {
			errno = e
		}
	} else if e, ok := err.(syscall.Errno); ok {
		errno = e
	} else {
		return false
	}
	for _, t := range targets {
		if errno == t {
			return true
		}
	}
	return false
}
