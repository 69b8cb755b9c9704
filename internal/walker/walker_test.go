package walker

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("content\n"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// resolveRoot mirrors the canonicalization Enumerate applies so
// expected paths compare equal on platforms where TempDir itself sits
// behind a symlink.
func resolveRoot(t *testing.T, root string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("resolve %s: %v", root, err)
	}
	return resolved
}

func TestEnumerateFiltersHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, ".secret.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))
	writeFile(t, filepath.Join(root, ".git", "config"))
	writeFile(t, filepath.Join(root, "sub", ".nested-hidden"))

	res, err := Enumerate(root, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	resolved := resolveRoot(t, root)
	want := []string{
		filepath.Join(resolved, "a.txt"),
		filepath.Join(resolved, "sub", "b.txt"),
	}
	if !reflect.DeepEqual(res.Files, want) {
		t.Errorf("Files = %v, want %v", res.Files, want)
	}
	if len(res.Errors) != 0 {
		t.Errorf("Errors = %v, want none", res.Errors)
	}
}

func TestEnumerateIncludeHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, ".secret.txt"))
	writeFile(t, filepath.Join(root, ".git", "config"))

	res, err := Enumerate(root, Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	resolved := resolveRoot(t, root)
	want := []string{
		filepath.Join(resolved, ".git", "config"),
		filepath.Join(resolved, ".secret.txt"),
		filepath.Join(resolved, "a.txt"),
	}
	if !reflect.DeepEqual(res.Files, want) {
		t.Errorf("Files = %v, want %v", res.Files, want)
	}
}

func TestEnumerateHiddenDirectoryPrunesSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "deep", "visible.txt"))

	res, err := Enumerate(root, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none under a hidden directory", res.Files)
	}
}

func TestEnumerateRootIsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "single.txt")
	writeFile(t, file)

	res, err := Enumerate(file, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if !reflect.DeepEqual(res.Files, []string{file}) {
		t.Errorf("Files = %v, want [%s]", res.Files, file)
	}
}

func TestEnumerateHiddenRootNotFiltered(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, ".workdir")
	writeFile(t, filepath.Join(root, "inside.txt"))

	res, err := Enumerate(root, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("Files = %v, want one file inside a hidden root", res.Files)
	}
	if filepath.Base(res.Files[0]) != "inside.txt" {
		t.Errorf("Files[0] = %s, want inside.txt", res.Files[0])
	}
}

func TestEnumerateMissingRoot(t *testing.T) {
	_, err := Enumerate(filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	if err == nil {
		t.Fatal("Enumerate() error = nil, want access failure")
	}
}

func TestEnumerateSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(root, "real.txt")
	writeFile(t, target)
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	res, err := Enumerate(root, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(res.Files) != 1 || filepath.Base(res.Files[0]) != "real.txt" {
		t.Errorf("Files = %v, want only real.txt", res.Files)
	}
}

func TestEnumerateSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}
	parent := t.TempDir()
	actual := filepath.Join(parent, "actual")
	writeFile(t, filepath.Join(actual, "f.txt"))
	link := filepath.Join(parent, "link")
	if err := os.Symlink(actual, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	res, err := Enumerate(link, Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if len(res.Files) != 1 || filepath.Base(res.Files[0]) != "f.txt" {
		t.Errorf("Files = %v, want the file behind the symlinked root", res.Files)
	}
}
