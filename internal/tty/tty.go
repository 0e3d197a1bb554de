// Package tty adapts a process's controlling terminal for use as the
// backing stream of a register-machine console register.
package tty

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNoTTY is returned if standard input is not a terminal. In this case,
// raw-mode console I/O is not available.
var ErrNoTTY error = errors.New("console: not a TTY")

// Console adapts a terminal for use as a register's backing stream: reads
// return one byte at a time, unbuffered and unechoed, and writes go
// straight to the terminal.
type Console struct {
	f     *os.File
	fd    int
	state *term.State
}

// NewConsole puts f's file descriptor into raw mode and returns a Console
// reading and writing through it. Callers must call [Console.Restore] to
// return the terminal to its initial state. ErrNoTTY is returned if f is
// not a terminal.
func NewConsole(f *os.File) (*Console, error) {
	fd := int(f.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	c := &Console{f: f, fd: fd, state: saved}

	if err := c.setReadParams(1, 0); err != nil {
		_ = c.Restore()
		return nil, err
	}

	return c, nil
}

// setReadParams configures the terminal's VMIN/VTIME so single-byte reads
// return as soon as a key is pressed instead of waiting for a line.
func (c *Console) setReadParams(vmin, vtime byte) error {
	termios, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termios.Cc[unix.VMIN] = vmin
	termios.Cc[unix.VTIME] = vtime

	return unix.IoctlSetTermios(c.fd, setTermiosIoctl, termios)
}

// Read implements io.Reader, reading directly from the terminal.
func (c *Console) Read(p []byte) (int, error) {
	return c.f.Read(p)
}

// Write implements io.Writer, writing directly to the terminal.
func (c *Console) Write(p []byte) (int, error) {
	return c.f.Write(p)
}

// Restore returns the terminal to the state it was in before [NewConsole].
func (c *Console) Restore() error {
	return term.Restore(c.fd, c.state)
}
