// Package editor implements the modal line editor at the heart of the
// interactive loop: a rune buffer, a cursor constrained to it, and the
// Normal/Input/Visual mode machine that decides how keys act on both.
package editor

import (
	"github.com/rsh-shell/rsh/core/term"
)

// Action tells the loop what side effect a key press requires beyond the
// buffer mutation the editor already performed.
type Action int

const (
	// ActionNone requires nothing further.
	ActionNone Action = iota
	// ActionSubmit finalizes the line; the loop calls Submit and dispatches.
	ActionSubmit
	// ActionComplete cycles command completion (Tab).
	ActionComplete
	// ActionHistoryPrev recalls the previous history entry.
	ActionHistoryPrev
	// ActionHistoryNext recalls the next history entry.
	ActionHistoryNext
	// ActionCancel abandons the current line (Ctrl-C).
	ActionCancel
	// ActionQuit ends the session (Ctrl-D).
	ActionQuit
)

// Editor is the loop-owned editing state: one mode, one buffer, one cursor.
// It is not safe for concurrent use and doesn't need to be; the loop owns it
// exclusively.
type Editor struct {
	mode   Mode
	buf    []rune
	cursor int
	anchor int // visual selection start, only meaningful in ModeVisual
}

// New returns an editor in Normal mode with an empty buffer.
func New() *Editor {
	return &Editor{mode: ModeNormal}
}

// Mode returns the active mode.
func (e *Editor) Mode() Mode { return e.mode }

// Cursor returns the cursor position in runes, always in [0, Len()].
func (e *Editor) Cursor() int { return e.cursor }

// Len returns the buffer length in runes.
func (e *Editor) Len() int { return len(e.buf) }

// String returns the buffer contents.
func (e *Editor) String() string { return string(e.buf) }

// Selection returns the inclusive visual selection bounds in buffer order.
// Only meaningful in Visual mode.
func (e *Editor) Selection() (start, end int) {
	if e.anchor <= e.cursor {
		return e.anchor, e.cursor
	}
	return e.cursor, e.anchor
}

// SetLine replaces the buffer (history recall, completion) and puts the
// cursor at the end.
func (e *Editor) SetLine(s string) {
	e.buf = []rune(s)
	e.cursor = len(e.buf)
}

// Submit returns the finalized line and resets the editor for the next one.
// The mode is unchanged: submitting from Input mode stays in Input mode.
func (e *Editor) Submit() string {
	line := string(e.buf)
	e.buf = e.buf[:0]
	e.cursor = 0
	e.anchor = 0
	return line
}

// Update applies one key event according to the active mode and reports the
// side effect the loop must perform. Unrecognized keys are no-ops.
func (e *Editor) Update(ev term.KeyEvent) Action {
	switch ev.Key {
	case term.KeyCtrlC:
		e.Submit()
		e.mode = ModeNormal
		return ActionCancel
	case term.KeyCtrlD:
		if len(e.buf) == 0 {
			return ActionQuit
		}
		return ActionNone
	}

	switch e.mode {
	case ModeInput:
		return e.updateInput(ev)
	case ModeVisual:
		return e.updateVisual(ev)
	default:
		return e.updateNormal(ev)
	}
}

func (e *Editor) updateNormal(ev term.KeyEvent) Action {
	switch {
	case ev.Key == term.KeyLeft, ev.Key == term.KeyRune && ev.Rune == 'h':
		e.move(-1)
	case ev.Key == term.KeyRight, ev.Key == term.KeyRune && ev.Rune == 'l':
		e.move(1)
	case ev.Key == term.KeyRune && ev.Rune == 'i':
		e.mode = ModeInput
	case ev.Key == term.KeyRune && ev.Rune == 'a':
		e.move(1)
		e.mode = ModeInput
	case ev.Key == term.KeyRune && ev.Rune == 'v':
		e.anchor = e.cursor
		e.mode = ModeVisual
	case ev.Key == term.KeyEnter:
		return ActionSubmit
	}
	return ActionNone
}

func (e *Editor) updateVisual(ev term.KeyEvent) Action {
	switch {
	case ev.Key == term.KeyLeft, ev.Key == term.KeyRune && ev.Rune == 'h':
		e.move(-1)
	case ev.Key == term.KeyRight, ev.Key == term.KeyRune && ev.Rune == 'l':
		e.move(1)
	case ev.Key == term.KeyRune && ev.Rune == 'd':
		e.deleteSelection()
		e.mode = ModeNormal
	case ev.Key == term.KeyRune && ev.Rune == 'i':
		e.mode = ModeInput
	case ev.Key == term.KeyEsc:
		e.mode = ModeNormal
	}
	return ActionNone
}

func (e *Editor) updateInput(ev term.KeyEvent) Action {
	switch ev.Key {
	case term.KeyRune:
		e.insert(ev.Rune)
	case term.KeyBackspace:
		e.backspace()
	case term.KeyDelete:
		e.deleteAt()
	case term.KeyLeft:
		e.move(-1)
	case term.KeyRight:
		e.move(1)
	case term.KeyHome:
		e.cursor = 0
	case term.KeyEnd:
		e.cursor = len(e.buf)
	case term.KeyEsc:
		// Leaving insert steps the cursor back, vi style.
		e.move(-1)
		e.mode = ModeNormal
	case term.KeyEnter:
		return ActionSubmit
	case term.KeyTab:
		return ActionComplete
	case term.KeyUp:
		return ActionHistoryPrev
	case term.KeyDown:
		return ActionHistoryNext
	}
	return ActionNone
}

func (e *Editor) insert(r rune) {
	e.buf = append(e.buf[:e.cursor], append([]rune{r}, e.buf[e.cursor:]...)...)
	e.cursor++
}

func (e *Editor) backspace() {
	if e.cursor == 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

func (e *Editor) deleteAt() {
	if e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

// deleteSelection removes the inclusive range between the anchor and the
// cursor.
func (e *Editor) deleteSelection() {
	if len(e.buf) == 0 {
		return
	}
	start, end := e.Selection()
	if end >= len(e.buf) {
		end = len(e.buf) - 1
	}
	e.buf = append(e.buf[:start], e.buf[end+1:]...)
	e.cursor = start
	e.clamp()
}

func (e *Editor) move(delta int) {
	e.cursor += delta
	e.clamp()
}

func (e *Editor) clamp() {
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
}
