package filesan

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const hexDigits = "0123456789ABCDEF"

// Allowed reports whether r may appear in a filename under every rule set
// in mode.
func Allowed(r rune, mode Mode) bool {
	n := uint32(r)
	if n >= uint32(len(disallowed)) {
		return true
	}
	return !disallowed[n].Intersects(mode)
}

// EscapeString escapes s so that it can be used as a filename under every
// rule set in mode.
//
// Disallowed characters and the escape character esc are replaced by esc
// followed by the uppercase hex code point, at least two digits long.
// Reserved names are prefixed with esc. Bytes that are not valid UTF-8 are
// replaced by esc followed by the hex value of the byte.
//
// Distinct inputs give distinct outputs for a fixed esc and mode as long as
// ValidEscape(esc, mode) returns nil. EscapeString does not check this.
func EscapeString(s string, esc rune, mode Mode) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	rest := s
	prefixed := false
	if mode.Contains(Windows) {
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			if stem := s[:i]; isWindowsReserved(stem) {
				b.WriteRune(esc)
				b.WriteString(stem)
				b.WriteByte('.')
				rest = s[i+1:]
				prefixed = true
			}
		} else if isWindowsReserved(s) {
			b.WriteRune(esc)
			b.WriteString(s)
			return b.String()
		}
	}

	if !prefixed && mode.Intersects(Unix|Mac) && isUnixReserved(rest) {
		b.WriteRune(esc)
		b.WriteString(rest)
		return b.String()
	}

	for i := 0; i < len(rest); {
		r, size := utf8.DecodeRuneInString(rest[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			writeEscaped(&b, esc, uint32(rest[i]))
		case r == esc || !Allowed(r, mode):
			writeEscaped(&b, esc, uint32(r))
		default:
			b.WriteString(rest[i : i+size])
		}
		i += size
	}

	out := b.String()
	if mode.Intersects(Windows) {
		if r, size := utf8.DecodeLastRuneInString(out); size > 0 && !Allowed(r, WindowsEnd) {
			var tail strings.Builder
			tail.Grow(len(out) + 4)
			tail.WriteString(out[:len(out)-size])
			writeEscaped(&tail, esc, uint32(r))
			out = tail.String()
		}
	}

	return out
}

// writeEscaped writes esc and the hex form of n, zero padded to two digits.
func writeEscaped(b *strings.Builder, esc rune, n uint32) {
	b.WriteRune(esc)
	if n < 0x10 {
		b.WriteByte('0')
	}
	var buf [8]byte
	i := len(buf)
	for {
		i--
		buf[i] = hexDigits[n&0xF]
		n >>= 4
		if n == 0 {
			break
		}
	}
	b.Write(buf[i:])
}

// ErrInvalidEscape is returned by ValidEscape.
var ErrInvalidEscape = errors.New("invalid escape character")

// ValidEscape reports whether esc can be used with mode. esc must be a legal
// character under mode. U+0080 to U+00FF are refused since their escaped
// form equals that of an invalid UTF-8 byte. Above U+00FF, the leading two
// hex digits of esc must not be the code of something mode escapes,
// otherwise the escaped esc reads as that escape followed by digits.
func ValidEscape(esc rune, mode Mode) error {
	switch {
	case !utf8.ValidRune(esc):
		return fmt.Errorf("%w: %U is not a valid character", ErrInvalidEscape, esc)
	case !Allowed(esc, mode):
		return fmt.Errorf("%w: %U is not allowed under %s", ErrInvalidEscape, esc, mode)
	case esc < 0x80:
		return nil
	case esc < 0x100:
		return fmt.Errorf("%w: %U collides with escaped invalid UTF-8", ErrInvalidEscape, esc)
	}

	lead := uint32(esc)
	for lead >= 0x100 {
		lead >>= 4
	}
	if lead >= 0x80 || disallowed[lead].Intersects(mode) {
		return fmt.Errorf("%w: escaped %U starts like the escape of 0x%02X", ErrInvalidEscape, esc, lead)
	}
	return nil
}

// Escaper pairs an escape character with a mode.
type Escaper struct {
	Escape rune
	Mode   Mode
}

// DefaultEscaper escapes with '_' for the build target.
var DefaultEscaper = Escaper{Escape: '_', Mode: System}

// EscapeName calls EscapeString with the escaper's settings.
func (e Escaper) EscapeName(name string) string {
	return EscapeString(name, e.Escape, e.Mode)
}

// Validate calls ValidEscape with the escaper's settings.
func (e Escaper) Validate() error {
	return ValidEscape(e.Escape, e.Mode)
}

// NeedsEscape reports whether EscapeName would change name.
func (e Escaper) NeedsEscape(name string) bool {
	return e.EscapeName(name) != name
}

// String describes the escaper, e.g. `'_' Unix,Windows`.
func (e Escaper) String() string {
	return "'" + string(e.Escape) + "' " + e.Mode.String()
}
