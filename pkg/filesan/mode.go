package filesan

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode is a set of operating system rule sets.
type Mode uint32

const (
	None    Mode = 0
	Unix    Mode = 1 << 0
	Windows Mode = 1 << 1
	Mac     Mode = 1 << 2

	// WindowsEnd holds the characters Windows refuses only at the end of a
	// name. It is not part of Windows or All and is only used for the
	// trailing-character check.
	WindowsEnd Mode = 1 << 3

	All = Unix | Windows | Mac
)

// ErrUnknownMode is returned when a mode name cannot be parsed.
var ErrUnknownMode = errors.New("unknown mode")

// Contains reports whether every bit of other is set in m.
func (m Mode) Contains(other Mode) bool {
	return m&other == other
}

// Intersects reports whether m and other share any bit.
func (m Mode) Intersects(other Mode) bool {
	return m&other != 0
}

var (
	modeToName = map[Mode]string{}
	nameToMode = map[string]Mode{}
)

// alias registers name for m. The first name registered for a value is the
// one String returns.
func alias(name string, m Mode) {
	nameToMode[strings.ToLower(name)] = m
	if _, ok := modeToName[m]; !ok {
		modeToName[m] = name
	}
}

func init() {
	alias("None", None)
	alias("Unix", Unix)
	alias("Windows", Windows)
	alias("Mac", Mac)
	alias("WindowsEnd", WindowsEnd)
	alias("All", All)
	alias("System", System)
	alias("Linux", Unix)
	alias("macOS", Mac)
	alias("Darwin", Mac)
}

func validModes() string {
	out := make([]string, 0, len(nameToMode))
	for k := range nameToMode {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// String returns the alias of m, or its bits as a comma separated list.
func (m Mode) String() string {
	if name, ok := modeToName[m]; ok {
		return name
	}
	var out []string
	for bit := Mode(1); bit != 0; bit <<= 1 {
		if m&bit == 0 {
			continue
		}
		if name, ok := modeToName[bit]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("0x%X", uint32(bit)))
		}
	}
	return strings.Join(out, ",")
}

// Set parses a comma separated list of mode names or numbers into m.
// Names are case-insensitive. An empty string is None.
func (m *Mode) Set(in string) error {
	var out Mode
	for _, part := range strings.Split(in, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if bits, ok := nameToMode[strings.ToLower(part)]; ok {
			out |= bits
			continue
		}
		n, err := strconv.ParseUint(part, 0, 32)
		if err != nil {
			return fmt.Errorf("%w %q: possible values are: %s", ErrUnknownMode, part, validModes())
		}
		out |= Mode(n)
	}
	*m = out
	return nil
}

// Type satisfies pflag.Value.
func (m Mode) Type() string {
	return "Mode"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// ParseMode parses s as Set does.
func ParseMode(s string) (Mode, error) {
	var m Mode
	if err := m.Set(s); err != nil {
		return None, err
	}
	return m, nil
}
