package extractor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tragoedia0722/filesan/pkg/filesan"
)

func TestIsSubPath(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")

	tests := []struct {
		path string
		want bool
	}{
		{base, true},
		{filepath.Join(base, "a"), true},
		{filepath.Join(base, "a", "..", "b"), true},
		{filepath.Join(base, ".."), false},
		{base + "-sibling", false},
		{filepath.Join(base, "..", "base", "x"), true},
	}

	for _, tt := range tests {
		if got := isSubPath(tt.path, base); got != tt.want {
			t.Errorf("isSubPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValidSymlinkTarget(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	link := filepath.Join(base, "sub", "link")

	tests := []struct {
		target string
		want   bool
	}{
		{"file", true},
		{"../file", true},
		{"./x/../y", true},
		{"../../file", false},
		{"", false},
		{"/etc/passwd", false},
	}

	for _, tt := range tests {
		if got := validSymlinkTarget(link, tt.target, base); got != tt.want {
			t.Errorf("validSymlinkTarget(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestEscapeEntry(t *testing.T) {
	e := NewExtractor(nil, "", t.TempDir())

	if _, err := e.escapeEntry(""); !errors.Is(err, ErrInvalidDirectoryEntry) {
		t.Errorf("empty name accepted: %v", err)
	}

	got, err := e.escapeEntry("a/b")
	if err != nil {
		t.Fatalf("escapeEntry failed: %v", err)
	}
	if got != "a_2Fb" {
		t.Errorf("got %q", got)
	}

	// An escape character that is itself a separator cannot produce a safe name.
	e.WithEscaper(filesan.Escaper{Escape: '/', Mode: filesan.None})
	if _, err = e.escapeEntry("a/b"); !errors.Is(err, ErrInvalidDirectoryEntry) {
		t.Errorf("separator escape accepted: %v", err)
	}
}

func TestPathError(t *testing.T) {
	err := &PathError{Path: "p", Op: "mkdir", Err: ErrPathTraversal}
	if !errors.Is(err, ErrPathTraversal) {
		t.Error("PathError does not unwrap")
	}
	if err.Error() != `mkdir "p": extraction path escapes base directory` {
		t.Errorf("unexpected message %q", err.Error())
	}
}
