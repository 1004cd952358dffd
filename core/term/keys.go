package term

import "unicode/utf8"

// Key identifies a decoded key press that isn't a plain printable rune.
type Key int

const (
	KeyRune Key = iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEsc
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyDelete
	KeyCtrlC
	KeyCtrlD
)

// KeyEvent is a single decoded key press. Rune is only meaningful when
// Key == KeyRune.
type KeyEvent struct {
	Key  Key
	Rune rune
}

const (
	byteEsc       = 0x1b
	byteCtrlC     = 0x03
	byteCtrlD     = 0x04
	byteBackspace = 0x7f
)

// decodeKeys consumes as many complete key presses as possible from buf and
// returns them along with any unconsumed trailing bytes (e.g. a partial
// escape sequence that needs more input).
func decodeKeys(buf []byte) ([]KeyEvent, []byte) {
	var events []KeyEvent

	for len(buf) > 0 {
		if buf[0] == byteEsc {
			if len(buf) == 1 {
				// Could be a bare Esc or the start of a sequence; a bare Esc
				// is only reported once the reader sees no follow-up bytes.
				return events, buf
			}
			seqLen := escapeSequenceLength(buf)
			if seqLen == 0 {
				return events, buf
			}
			if seqLen == 1 {
				events = append(events, KeyEvent{Key: KeyEsc})
				buf = buf[1:]
				continue
			}
			if ev, ok := decodeEscapeSequence(string(buf[1:seqLen])); ok {
				events = append(events, ev)
			}
			buf = buf[seqLen:]
			continue
		}

		ev, size, ok := decodeByte(buf)
		if size == 0 && !ok {
			// Partial UTF-8 rune.
			return events, buf
		}
		if ok {
			events = append(events, ev)
		}
		buf = buf[size:]
	}

	return events, nil
}

// escapeSequenceLength reports the total length of the escape sequence at the
// start of buf, 0 if more bytes are needed, or 1 for a bare Esc.
func escapeSequenceLength(buf []byte) int {
	if len(buf) < 2 {
		return 0
	}
	if buf[1] != '[' && buf[1] != 'O' {
		// Esc followed by an unrelated byte: treat as a bare Esc press and
		// let the next byte be decoded on its own.
		return 1
	}
	for i := 2; i < len(buf) && i < 8; i++ {
		b := buf[i]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			return i + 1
		}
	}
	if len(buf) >= 8 {
		return 8 // Malformed; drop it rather than stall the reader.
	}
	return 0
}

func decodeEscapeSequence(seq string) (KeyEvent, bool) {
	switch seq {
	case "[A", "OA":
		return KeyEvent{Key: KeyUp}, true
	case "[B", "OB":
		return KeyEvent{Key: KeyDown}, true
	case "[C", "OC":
		return KeyEvent{Key: KeyRight}, true
	case "[D", "OD":
		return KeyEvent{Key: KeyLeft}, true
	case "[H", "OH", "[1~":
		return KeyEvent{Key: KeyHome}, true
	case "[F", "OF", "[4~":
		return KeyEvent{Key: KeyEnd}, true
	case "[3~":
		return KeyEvent{Key: KeyDelete}, true
	}
	return KeyEvent{}, false
}

func decodeByte(buf []byte) (KeyEvent, int, bool) {
	switch buf[0] {
	case '\r', '\n':
		return KeyEvent{Key: KeyEnter}, 1, true
	case '\t':
		return KeyEvent{Key: KeyTab}, 1, true
	case byteBackspace, 0x08:
		return KeyEvent{Key: KeyBackspace}, 1, true
	case byteCtrlC:
		return KeyEvent{Key: KeyCtrlC}, 1, true
	case byteCtrlD:
		return KeyEvent{Key: KeyCtrlD}, 1, true
	}

	if buf[0] < 0x20 {
		// Remaining control bytes are ignored.
		return KeyEvent{}, 1, false
	}

	if buf[0] < 0x80 {
		return KeyEvent{Key: KeyRune, Rune: rune(buf[0])}, 1, true
	}

	// Multi-byte UTF-8.
	if !utf8.FullRune(buf) {
		return KeyEvent{}, 0, false
	}
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size == 1 {
		// Stray continuation byte; drop it rather than stall the reader.
		return KeyEvent{}, 1, false
	}
	return KeyEvent{Key: KeyRune, Rune: r}, size, true
}
