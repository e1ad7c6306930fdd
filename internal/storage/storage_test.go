package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ds "github.com/ipfs/go-datastore"
)

func TestNewStorage(t *testing.T) {
	t.Run("creates layout", func(t *testing.T) {
		dir := t.TempDir()

		s, err := NewStorage(dir)
		if err != nil {
			t.Fatalf("NewStorage failed: %v", err)
		}
		defer s.Close()

		if s.Path() != dir {
			t.Errorf("path mismatch: got %s, want %s", s.Path(), dir)
		}

		for _, name := range []string{"datastore_spec", "blocks", "datastore", LockFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("expected %s to exist: %v", name, err)
			}
		}
	})

	t.Run("cleans path", func(t *testing.T) {
		dir := t.TempDir()

		s, err := newStorage(filepath.Join(dir, "sub", "..", "."))
		if err != nil {
			t.Fatalf("newStorage failed: %v", err)
		}
		if s.path != filepath.Clean(dir) {
			t.Errorf("path not cleaned: got %s, want %s", s.path, dir)
		}
	})

	t.Run("expands tilde", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory available")
		}

		s, err := newStorage("~/filesan-test")
		if err != nil {
			t.Fatalf("newStorage failed: %v", err)
		}
		if want := filepath.Join(home, "filesan-test"); s.path != want {
			t.Errorf("path not expanded: got %s, want %s", s.path, want)
		}
	})

	t.Run("fails with empty path", func(t *testing.T) {
		_, err := NewStorage("")
		var pathErr *InvalidPathError
		if !errors.As(err, &pathErr) {
			t.Fatalf("expected InvalidPathError, got %v", err)
		}
	})

	t.Run("rejects changed spec", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(DatastoreSpecPath(dir), []byte(`{"type":"levelds","path":"x"}`), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := NewStorage(dir)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if cfgErr.Field != "datastore_spec" {
			t.Errorf("unexpected field %q", cfgErr.Field)
		}
		if _, err := os.Stat(filepath.Join(dir, LockFile)); !os.IsNotExist(err) {
			t.Errorf("lock file should be released after failed open")
		}
	})
}

func TestStorage_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := ds.NewKey("/blocks/CIQA")

	s, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	if err = s.Datastore().Put(ctx, key, []byte("data")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err = s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	s, err = NewStorage(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Datastore().Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("got %q, want %q", got, "data")
	}
}

func TestStorage_Usage(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	before, err := s.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}

	payload := make([]byte, 64*1024)
	if err = s.Datastore().Put(ctx, ds.NewKey("/blocks/CIQB"), payload); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	after, err := s.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if after <= before {
		t.Errorf("usage did not grow: before %d, after %d", before, after)
	}
}

func TestStorage_Close(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}

	if err = s.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err = s.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
	if _, err = os.Stat(filepath.Join(dir, LockFile)); !os.IsNotExist(err) {
		t.Errorf("lock file not removed")
	}
}

func TestStorage_Destroy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "repo")
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}

	if err = s.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if _, err = os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("directory still exists after Destroy")
	}
}
