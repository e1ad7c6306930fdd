package filesan

import (
	"slices"
)

const (
	non = None
	www = Windows
	wwm = Windows | Mac
	uwm = Unix | Windows | Mac
	wee = WindowsEnd
)

// disallowed maps each ASCII code point to the modes that forbid it.
// Code points past the end are allowed everywhere.
var disallowed = [128]Mode{
	// NUL  SOH  STX  ETX  EOT  ENQ  ACK  BEL  BS   HT   LF   VT   FF   CR   SO   SI
	// SI is Windows-only like the other control characters; only NUL is
	// refused by Unix and Mac.
	uwm, www, www, www, www, www, www, www, www, www, www, www, www, www, www, www,
	// DLE  DC1  DC2  DC3  DC4  NAK  SYN  ETB  CAN  EM   SUB  ESC  FS   GS   RS   US
	www, www, www, www, www, www, www, www, www, www, www, www, www, www, www, www,
	// SP   !    "    #    $    %    &    '    (    )    *    +    ,    -    .    /
	wee, non, www, non, non, non, non, non, non, non, www, non, non, non, wee, uwm,
	// 0    1    2    3    4    5    6    7    8    9    :    ;    <    =    >    ?
	non, non, non, non, non, non, non, non, non, non, wwm, non, www, non, www, www,
	// @    A    B    C    D    E    F    G    H    I    J    K    L    M    N    O
	non, non, non, non, non, non, non, non, non, non, non, non, non, non, non, non,
	// P    Q    R    S    T    U    V    W    X    Y    Z    [    \    ]    ^    _
	non, non, non, non, non, non, non, non, non, non, non, non, www, non, non, non,
	// `    a    b    c    d    e    f    g    h    i    j    k    l    m    n    o
	non, non, non, non, non, non, non, non, non, non, non, non, non, non, non, non,
	// p    q    r    s    t    u    v    w    x    y    z    {    |    }    ~    DEL
	non, non, non, non, non, non, non, non, non, non, non, non, www, non, non, non,
}

var windowsReserved = [...]string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

var unixReserved = [...]string{".", ".."}

// WindowsReserved returns the device names Windows refuses as a file stem.
func WindowsReserved() []string {
	return slices.Clone(windowsReserved[:])
}

// UnixReserved returns the names Unix and macOS refuse as a filename.
func UnixReserved() []string {
	return slices.Clone(unixReserved[:])
}

// SystemReserved returns the reserved names of the build target.
func SystemReserved() []string {
	if System.Intersects(Windows) {
		return WindowsReserved()
	}
	return UnixReserved()
}

func isWindowsReserved(name string) bool {
	return slices.Contains(windowsReserved[:], name)
}

func isUnixReserved(name string) bool {
	return name == "." || name == ".."
}
