// Package filesan escapes arbitrary strings into legal filename components.
//
// A Mode selects which operating system rule sets apply (Unix, Windows, Mac,
// or any union of them). EscapeString replaces every character that is not
// allowed under the mode, and every occurrence of the escape character
// itself, with the escape character followed by the uppercase hex code point:
//
//	filesan.EscapeString("a/b_c", '_', filesan.Unix)    // "a_2Fb_5Fc"
//	filesan.EscapeString("what?", '_', filesan.Windows) // "what_3F"
//
// Whole names that an OS reserves are prefixed with the escape character
// instead:
//
//	filesan.EscapeString("NUL.txt", '_', filesan.Windows) // "_NUL.txt"
//	filesan.EscapeString("..", '_', filesan.Unix)         // "_.."
//
// Under Windows a trailing space or dot is escaped as well, since Windows
// strips them silently.
//
// For a fixed escape character and mode the transform is injective: two
// different inputs never produce the same output. This holds for the escape
// characters ValidEscape accepts. EscapeString itself does not check.
//
// The package only computes strings. It never touches a filesystem, never
// splits paths and never normalizes Unicode. There is no inverse transform.
//
// Rules:
//
//   - Unix: NUL and '/' are disallowed; "." and ".." are reserved.
//   - Mac: NUL, '/' and ':' are disallowed; "." and ".." are reserved.
//   - Windows: control characters 0x00-0x1F and < > : " / \ | ? * are
//     disallowed; CON, PRN, AUX, NUL, COM1-COM9 and LPT1-LPT9 are reserved
//     with or without an extension; names must not end in ' ' or '.'.
//
// System is the Mode of the build target and is fixed at compile time.
package filesan
