package term

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// ErrInputPoll wraps terminal read failures. These are fatal to the
// interactive loop; there is no way to continue without key input.
var ErrInputPoll = errors.New("terminal input failed")

// KeySource produces key events with a bounded wait. Implemented by Terminal
// for real use and by scripted fakes in tests.
type KeySource interface {
	PollKey(timeout time.Duration) (KeyEvent, bool, error)
}

// Terminal owns the controlling terminal in raw mode and decodes its input
// byte stream into key events.
type Terminal struct {
	in       *os.File
	fd       int
	oldState *term.State

	// pending holds bytes read from the terminal that don't yet form a
	// complete key press (partial escape sequences, split UTF-8 runes).
	pending []byte

	// queued holds decoded events not yet returned by PollKey.
	queued []KeyEvent
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Open puts the terminal connected to f into raw mode. Callers must Restore
// before exiting or the user's terminal is left unusable.
func Open(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputPoll, err)
	}

	return &Terminal{in: f, fd: fd, oldState: oldState}, nil
}

// Restore returns the terminal to its pre-raw state.
func (t *Terminal) Restore() error {
	return term.Restore(t.fd, t.oldState)
}

// Resume re-enters raw mode after Restore, e.g. once a child command that
// needed a cooked terminal has finished.
func (t *Terminal) Resume() error {
	oldState, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInputPoll, err)
	}
	t.oldState = oldState
	return nil
}

// Width returns the terminal width in columns, or 80 if it can't be queried.
func (t *Terminal) Width() int {
	w, _, err := term.GetSize(t.fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// PollKey returns the next key event if one arrives within timeout. The
// second return value is false when no input is pending; the caller's render
// loop continues. Only read errors on the underlying terminal are returned,
// wrapped in ErrInputPoll.
func (t *Terminal) PollKey(timeout time.Duration) (KeyEvent, bool, error) {
	if len(t.queued) > 0 {
		ev := t.queued[0]
		t.queued = t.queued[1:]
		return ev, true, nil
	}

	deadline := time.Now().Add(timeout)
	for {
		n, err := t.read()
		switch {
		case err != nil:
			return KeyEvent{}, false, err
		case n > 0:
			var events []KeyEvent
			events, t.pending = decodeKeys(t.pending)
			if len(events) > 0 {
				t.queued = events[1:]
				return events[0], true, nil
			}
			// Partial sequence; keep reading within the deadline.
		}

		if !time.Now().Before(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// A lone Esc byte with no follow-up within the poll window is a real
	// Esc press, not the start of a sequence.
	if len(t.pending) == 1 && t.pending[0] == byteEsc {
		t.pending = nil
		return KeyEvent{Key: KeyEsc}, true, nil
	}

	return KeyEvent{}, false, nil
}

// read performs a single non-blocking read, appending to t.pending.
func (t *Terminal) read() (int, error) {
	if err := syscall.SetNonblock(t.fd, true); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInputPoll, err)
	}
	defer syscall.SetNonblock(t.fd, false)

	buf := make([]byte, 64)
	n, err := syscall.Read(t.fd, buf)
	switch {
	case err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || err == syscall.EINTR:
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrInputPoll, err)
	case n == 0:
		// EOF: the terminal went away.
		return 0, fmt.Errorf("%w: input closed", ErrInputPoll)
	}

	t.pending = append(t.pending, buf[:n]...)
	return n, nil
}
