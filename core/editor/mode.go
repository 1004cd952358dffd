package editor

// Mode is the current editing context. Exactly one mode is active at a time;
// it governs how key presses mutate the line buffer and how the cursor is
// drawn.
type Mode int

const (
	// ModeNormal is the initial mode: the cursor moves over the buffer
	// without mutating it.
	ModeNormal Mode = iota
	// ModeInput inserts typed runes at the cursor.
	ModeInput
	// ModeVisual anchors a selection at the cursor and extends it with
	// movement keys.
	ModeVisual
)

// Letter returns the single-letter mode indicator shown in the prompt.
func (m Mode) Letter() string {
	switch m {
	case ModeInput:
		return "I"
	case ModeVisual:
		return "V"
	default:
		return "N"
	}
}

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeVisual:
		return "visual"
	default:
		return "normal"
	}
}
