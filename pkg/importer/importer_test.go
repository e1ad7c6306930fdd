package importer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ipfs/boxo/blockservice"
	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/blockstore"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/go-cid"

	"github.com/tragoedia0722/filesan/pkg/filesan"
	"github.com/tragoedia0722/filesan/pkg/repository"
)

func newTestBlockstore(t *testing.T) blockstore.Blockstore {
	t.Helper()

	repo, err := repository.NewRepository(filepath.Join(t.TempDir(), "repo"))
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo.BlockStore()
}

// writeTree creates a small tree with names that are legal on Unix only.
func writeTree(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "src")
	files := map[string]string{
		"CON.txt":       "device name",
		"a:b":           "colon",
		"x_y":           "underscore",
		"sub/inner.txt": "nested",
	}
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func linkNames(t *testing.T, bs blockstore.Blockstore, root string) []string {
	t.Helper()

	c, err := cid.Parse(root)
	if err != nil {
		t.Fatal(err)
	}
	dag := merkledag.NewDAGService(blockservice.New(bs, nil))
	nd, err := dag.Get(context.Background(), c)
	if err != nil {
		t.Fatalf("get root: %v", err)
	}

	var names []string
	for _, l := range nd.Links() {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

func contentNames(res *Result) (stored, original []string) {
	for _, c := range res.Contents {
		stored = append(stored, c.Name)
		original = append(original, c.Original)
	}
	return
}

func TestImport_KeepsOriginalNames(t *testing.T) {
	if filesan.System != filesan.Unix {
		t.Skip("tree uses names that are illegal on this system")
	}

	bs := newTestBlockstore(t)
	dir := writeTree(t)

	res, err := NewImporter(bs, dir).Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if res.Name != "src" {
		t.Errorf("Name: got %q", res.Name)
	}
	if res.Size != int64(len("device name")+len("colon")+len("underscore")+len("nested")) {
		t.Errorf("Size: got %d", res.Size)
	}
	if len(res.Packages) != 1 || len(res.Packages[0].Hash) != 64 {
		t.Errorf("unexpected packages: %+v", res.Packages)
	}

	stored, original := contentNames(res)
	want := []string{"CON.txt", "a:b", "sub/inner.txt", "x_y"}
	if !equalStrings(stored, want) || !equalStrings(original, want) {
		t.Errorf("contents: stored %v original %v", stored, original)
	}

	got := linkNames(t, bs, res.RootCid)
	if !equalStrings(got, []string{"CON.txt", "a:b", "sub", "x_y"}) {
		t.Errorf("root links: %v", got)
	}
}

func TestImport_WithNameEscaper(t *testing.T) {
	if filesan.System != filesan.Unix {
		t.Skip("tree uses names that are illegal on this system")
	}

	bs := newTestBlockstore(t)
	dir := writeTree(t)

	res, err := NewImporter(bs, dir).
		WithNameEscaper(filesan.Escaper{Escape: '_', Mode: filesan.All}).
		Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	stored, original := contentNames(res)
	if !equalStrings(stored, []string{"_CON.txt", "a_3Ab", "sub/inner.txt", "x_5Fy"}) {
		t.Errorf("stored names: %v", stored)
	}
	if !equalStrings(original, []string{"CON.txt", "a:b", "sub/inner.txt", "x_y"}) {
		t.Errorf("original names: %v", original)
	}

	got := linkNames(t, bs, res.RootCid)
	if !equalStrings(got, []string{"_CON.txt", "a_3Ab", "sub", "x_5Fy"}) {
		t.Errorf("root links: %v", got)
	}
}

func TestImport_SingleFile(t *testing.T) {
	bs := newTestBlockstore(t)
	file := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(file, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewImporter(bs, file).Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if res.Name != "report.txt" || res.Size != 5 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(res.Contents) != 1 || res.Contents[0].Name != "report.txt" {
		t.Errorf("contents: %+v", res.Contents)
	}
	if got := linkNames(t, bs, res.RootCid); !equalStrings(got, []string{"report.txt"}) {
		t.Errorf("root should wrap the file, got links %v", got)
	}
}

func TestImport_Deterministic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := NewImporter(newTestBlockstore(t), dir).Import(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewImporter(newTestBlockstore(t), dir).Import(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if first.RootCid != second.RootCid {
		t.Errorf("root CIDs differ: %s vs %s", first.RootCid, second.RootCid)
	}
	c, err := cid.Parse(first.RootCid)
	if err != nil || c.Version() != 1 {
		t.Errorf("expected CIDv1, got %s (%v)", first.RootCid, err)
	}
}

func TestImport_Progress(t *testing.T) {
	bs := newTestBlockstore(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.bin"), make([]byte, 3*chunkSize+10), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls int
	var last, total int64
	_, err := NewImporter(bs, dir).WithProgress(func(completed, tot int64, current string) {
		calls++
		last, total = completed, tot
		if current != "big.bin" {
			t.Errorf("unexpected current file %q", current)
		}
	}).Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if calls == 0 {
		t.Fatal("progress callback never called")
	}
	if last != total || total != 3*chunkSize+10 {
		t.Errorf("final progress %d/%d", last, total)
	}
}

func TestImport_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := NewImporter(newTestBlockstore(t), filepath.Join(t.TempDir(), "missing")).Import(context.Background())
		var importErr *ImportError
		if !errors.As(err, &importErr) || importErr.Op != "stat" {
			t.Fatalf("expected stat ImportError, got %v", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error should wrap ErrNotExist: %v", err)
		}
	})

	t.Run("ambiguous escaper", func(t *testing.T) {
		imp := NewImporter(newTestBlockstore(t), writeTreeOrDir(t)).
			WithNameEscaper(filesan.Escaper{Escape: 'é', Mode: filesan.Unix})
		if _, err := imp.Import(context.Background()); !errors.Is(err, filesan.ErrInvalidEscape) {
			t.Errorf("expected ErrInvalidEscape, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewImporter(newTestBlockstore(t), writeTreeOrDir(t)).Import(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func writeTreeOrDir(t *testing.T) string {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCreatePackages(t *testing.T) {
	blocks := make([]string, 250)
	for i := range blocks {
		blocks[i] = string(rune('a' + i%26))
	}

	pkgs := createPackages(blocks)
	if len(pkgs) != 3 {
		t.Fatalf("got %d packages, want 3", len(pkgs))
	}
	for i, want := range []int{100, 100, 50} {
		if len(pkgs[i].Blocks) != want {
			t.Errorf("package %d has %d blocks, want %d", i, len(pkgs[i].Blocks), want)
		}
	}
	if pkgs[0].Hash == pkgs[2].Hash {
		t.Error("different packages share a hash")
	}
	if calcPackage(blocks[:100]).Hash != pkgs[0].Hash {
		t.Error("package hash is not deterministic")
	}

	if got := createPackages(nil); len(got) != 0 {
		t.Errorf("expected no packages, got %d", len(got))
	}
}

func TestImportError(t *testing.T) {
	err := &ImportError{Path: "p", Op: "add", Err: ErrDuplicateEntry}
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Error("ImportError does not unwrap")
	}
	if err.Error() != `add "p": duplicate entry name` {
		t.Errorf("unexpected message %q", err.Error())
	}
	if (&ImportError{Path: "p", Err: ErrNoContent}).Error() != `import error "p": no file` {
		t.Error("unexpected message without op")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSliceDirectory_ClosesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := NewImporter(newTestBlockstore(t), path)
	dir, closeSource, err := imp.sliceDirectory(path)
	if err != nil {
		t.Fatalf("sliceDirectory failed: %v", err)
	}

	it := dir.Entries()
	if !it.Next() || it.Name() != wrapperDirName {
		t.Fatalf("expected wrapper directory, got %q", it.Name())
	}
	inner := files.ToDir(it.Node()).Entries()
	if !inner.Next() {
		t.Fatal("wrapper directory is empty")
	}
	file := files.ToFile(inner.Node())

	closeSource()
	if _, err = io.ReadAll(file); !errors.Is(err, os.ErrClosed) {
		t.Errorf("expected the source file to be closed, got %v", err)
	}

	// The adder closes the node as well.
	closeSource()
	_ = file.Close()
}
