package extractor

import (
	"path/filepath"
	"strings"
)

// escapeEntry maps a DAG entry name to the name written to disk and rejects
// anything that is not a single path component.
func (e *Extractor) escapeEntry(name string) (string, error) {
	escaped := e.escaper.EscapeName(name)

	if escaped == "" || escaped == "." || escaped == ".." ||
		strings.ContainsRune(escaped, '/') ||
		strings.ContainsRune(escaped, filepath.Separator) {
		return "", wrapInvalidDirectoryEntry(name)
	}

	return escaped, nil
}

func isSubPath(path, base string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}

	return absPath == absBase || strings.HasPrefix(absPath, absBase+string(filepath.Separator))
}

// validSymlinkTarget accepts relative targets that resolve, from the link's
// directory, to somewhere under base.
func validSymlinkTarget(linkPath, target, base string) bool {
	if target == "" || filepath.IsAbs(target) || filepath.VolumeName(target) != "" {
		return false
	}

	resolved := filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(target))
	return isSubPath(resolved, base)
}
