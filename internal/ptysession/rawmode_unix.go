//go:build unix

package ptysession

import (
	"os"

	"golang.org/x/sys/unix"
)

// setRawMode puts f's underlying terminal into a mostly raw mode: no line
// editing, 8-bit clean input, one byte at a time. Input echo and signal
// generation stay on. With canonical mode off, ^D reaches the child as a
// literal byte rather than being turned into end-of-file; ^C still raises
// SIGINT in the child's foreground process group, as on a real terminal.
func setRawMode(f *os.File) error {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return err
	}

	raw := *termios
	// Input flags: disable break signal generation, break-to-SIGINT
	// translation, parity stripping, NL-to-CR translation, ignoring CR,
	// and software flow control. ICRNL stays enabled so a sent CR still
	// reaches the child as NL, matching ordinary shell behavior.
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.IXON
	// Output flags left alone: OPOST stays enabled so the PTY still
	// performs normal output processing the child expects.
	// Local flags: keep ECHO enabled so sent input is visible in any
	// mirrored log, and keep ISIG enabled so a sent ^C interrupts the
	// child; disable canonical (line-buffered) input and extended input
	// processing.
	raw.Lflag &^= unix.ECHONL | unix.ICANON | unix.IEXTEN
	// Control flags: 8-bit characters, no parity.
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8

	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw)
}

// setNonBlocking toggles O_NONBLOCK on fd. The Session always restores
// blocking mode after a non-blocking read attempt, even on error, because
// duplicated file descriptors referring to the same PTY share this flag
// with any other process holding the descriptor open.
func setNonBlocking(fd int, nonBlocking bool) error {
	return unix.SetNonblock(fd, nonBlocking)
}
