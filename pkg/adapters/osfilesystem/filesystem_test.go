package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "test.txt")

	if err := fs.WriteFile(path, []byte("hello world")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", data)
	}
}

func TestFileSystem_WriteFileAtomic(t *testing.T) {
	fs := New()
	dir := filepath.Join(t.TempDir(), "theme_previews")
	path := filepath.Join(dir, "1.0_theme_dark.png")

	if err := fs.WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := fs.WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}

	names, err := fs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("expected no temp files left behind, got %v", names)
	}
}

func TestFileSystem_ReadDir(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	for _, name := range []string{"b.png", "a.png"} {
		if err := fs.WriteFile(filepath.Join(dir, name), []byte("x")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := fs.MkdirAll(filepath.Join(dir, "sub")); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	names, err := fs.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a.png" || names[1] != "b.png" {
		t.Errorf("expected [a.png b.png], got %v", names)
	}
}

func TestFileSystem_ReadDirMissing(t *testing.T) {
	fs := New()

	names, err := fs.ReadDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("expected no error for missing dir, got %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no names, got %v", names)
	}
}

func TestFileSystem_WriteFileCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.txt")

	if err := fs.WriteFile(path, []byte("test")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, err := fs.Exists(path)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected file to exist")
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "file.txt")

	exists, err := fs.Exists(path)
	if err != nil || exists {
		t.Fatalf("expected missing file, got exists=%v err=%v", exists, err)
	}

	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	exists, _ = fs.Exists(path)
	if exists {
		t.Error("expected file to be removed")
	}
}
