// Package render draws the prompt, the in-progress line, and the cursor to
// the terminal. Rendering is a pure function of a Frame; the renderer skips
// the write entirely when the frame hasn't changed since the last call.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/rsh-shell/rsh/core/editor"
)

// Cursor style escapes (DECSCUSR). The glyph is how the user sees which mode
// is active before reading the prompt.
const (
	cursorDefault  = "\x1b[0 q" // Normal
	cursorBlock    = "\x1b[2 q" // Input
	cursorUnderBlk = "\x1b[3 q" // Visual, blinking underline
)

const (
	clearLine = "\r\x1b[K"
)

// Frame is everything needed to draw one line of terminal state.
type Frame struct {
	Username string
	Dir      string // display form of the working directory, e.g. "src/rsh/"
	Mode     editor.Mode
	LastExit int
	Buffer   string
	Cursor   int    // rune offset into Buffer
	Ghost    string // inline completion suffix, drawn dimmed after the buffer
	Accent   bool   // true when ~/.rshenv is present; switches the user color
	Width    int    // terminal columns; 0 disables ghost trimming
}

type palette struct {
	userAccent *color.Color
	userPlain  *color.Color
	dir        *color.Color
	exit       *color.Color
	modeInput  *color.Color
	modeNormal *color.Color
	modeVisual *color.Color
	command    *color.Color
	args       *color.Color
	ghost      *color.Color
}

// accentColors maps the prompt_accent config names to terminal colors. The
// set matches the config validator.
var accentColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

func newPalette(accent string) palette {
	accentAttr, ok := accentColors[accent]
	if !ok {
		accentAttr = color.FgMagenta
	}
	return palette{
		userAccent: color.New(accentAttr, color.Bold),
		userPlain:  color.New(color.FgRed, color.Bold),
		dir:        color.New(color.FgWhite),
		exit:       color.New(color.FgGreen),
		modeInput:  color.New(color.FgCyan),
		modeNormal: color.New(color.FgGreen),
		modeVisual: color.New(color.FgYellow),
		command:    color.New(color.FgCyan),
		args:       color.New(color.FgGreen),
		ghost:      color.New(color.Faint),
	}
}

// Renderer writes frames to a terminal-like writer.
type Renderer struct {
	w       io.Writer
	colors  palette
	last    *Frame
	written bool
}

// New builds a renderer over w. accent is the prompt_accent color name from
// the configuration; unknown names fall back to magenta.
func New(w io.Writer, accent string) *Renderer {
	return &Renderer{w: w, colors: newPalette(accent)}
}

// Invalidate forces the next Render to redraw even for an identical frame,
// e.g. after command output scrolled the screen.
func (r *Renderer) Invalidate() {
	r.written = false
}

// Render redraws the line for f. Calling it again with an equal frame writes
// nothing, so the loop can render unconditionally every iteration without
// flicker.
func (r *Renderer) Render(f Frame) error {
	if r.written && r.last != nil && *r.last == f {
		return nil
	}
	orig := f

	var b strings.Builder
	b.WriteString(clearLine)
	b.WriteString(cursorStyle(f.Mode))

	plainWidth := r.writePrompt(&b, f)

	// A ghost spilling past the right edge would wrap the row and break the
	// carriage-return redraw, so trim it to the remaining columns.
	if f.Width > 0 && f.Ghost != "" {
		avail := f.Width - 1 - plainWidth - runewidth.StringWidth(f.Buffer)
		if avail < 0 {
			avail = 0
		}
		f.Ghost = runewidth.Truncate(f.Ghost, avail, "")
	}

	plainWidth += r.writeBuffer(&b, f)

	// Park the cursor at its buffer position. Column is 1-based and counts
	// display cells, not runes.
	col := plainWidth - bufferTailWidth(f) + 1
	fmt.Fprintf(&b, "\x1b[%dG", col)

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return err
	}

	r.last = &orig
	r.written = true
	return nil
}

// writePrompt renders `user dir [code: M] > ` and returns its display width.
func (r *Renderer) writePrompt(b *strings.Builder, f Frame) int {
	userColor := r.colors.userPlain
	if f.Accent {
		userColor = r.colors.userAccent
	}

	modeColor := r.colors.modeNormal
	switch f.Mode {
	case editor.ModeInput:
		modeColor = r.colors.modeInput
	case editor.ModeVisual:
		modeColor = r.colors.modeVisual
	}

	exitText := fmt.Sprintf("%d", f.LastExit)

	b.WriteString(userColor.Sprint(f.Username))
	b.WriteString(" ")
	b.WriteString(r.colors.dir.Sprint(f.Dir))
	b.WriteString(" [")
	b.WriteString(r.colors.exit.Sprint(exitText))
	b.WriteString(": ")
	b.WriteString(modeColor.Sprint(f.Mode.Letter()))
	b.WriteString("] > ")

	return runewidth.StringWidth(f.Username) + 1 +
		runewidth.StringWidth(f.Dir) +
		2 + runewidth.StringWidth(exitText) + 2 + 1 + 4
}

// writeBuffer renders the line being edited, command word and arguments in
// different colors, then the ghost completion suffix. Returns the display
// width of the buffer alone; the ghost doesn't count since the cursor always
// sits before it.
func (r *Renderer) writeBuffer(b *strings.Builder, f Frame) int {
	command, args := splitCommand(f.Buffer)

	b.WriteString(r.colors.command.Sprint(command))
	if args != "" {
		b.WriteString(r.colors.args.Sprint(args))
	}

	// The ghost is drawn past the buffer; the final absolute cursor move
	// puts the cursor back on top of it.
	if f.Ghost != "" && f.Cursor == len([]rune(f.Buffer)) {
		b.WriteString(r.colors.ghost.Sprint(f.Ghost))
	}

	return runewidth.StringWidth(f.Buffer)
}

// splitCommand separates the command word from the rest of the line without
// altering any characters, so rendered text always matches the buffer.
func splitCommand(line string) (command, args string) {
	if i := strings.IndexRune(line, ' '); i >= 0 {
		return line[:i], line[i:]
	}
	return line, ""
}

// bufferTailWidth is the display width of the buffer after the cursor.
func bufferTailWidth(f Frame) int {
	runes := []rune(f.Buffer)
	cursor := f.Cursor
	if cursor > len(runes) {
		cursor = len(runes)
	}
	return runewidth.StringWidth(string(runes[cursor:]))
}

func cursorStyle(m editor.Mode) string {
	switch m {
	case editor.ModeInput:
		return cursorBlock
	case editor.ModeVisual:
		return cursorUnderBlk
	default:
		return cursorDefault
	}
}
