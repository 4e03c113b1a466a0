package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReal_Stat_ReturnsNotExistForMissingFile(t *testing.T) {
	fs := NewReal()
	dir := t.TempDir()

	_, err := fs.Stat(filepath.Join(dir, "missing.txt"))
	if !os.IsNotExist(err) {
		t.Fatalf("Stat(): err=%v, want os.IsNotExist", err)
	}
}

func TestReal_MkdirAll_CreatesNestedDirectories(t *testing.T) {
	fs := NewReal()
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")

	if err := fs.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll(): %v", err)
	}

	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("Stat() after MkdirAll: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("%s is not a directory", nested)
	}
}

func TestReal_OpenFile_CreatesWithFlag(t *testing.T) {
	fs := NewReal()
	path := filepath.Join(t.TempDir(), "created.txt")

	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile(): %v", err)
	}
	defer f.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
}

func TestReal_Preallocate_CreatesFileOfExactSize(t *testing.T) {
	fs := NewReal()
	path := filepath.Join(t.TempDir(), "preallocated.rrd")

	const size = 1 << 20 // 1 MiB

	if err := fs.Preallocate(path, size); err != nil {
		t.Fatalf("Preallocate(): %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() after Preallocate: %v", err)
	}

	if info.Size() != size {
		t.Fatalf("size=%d, want %d", info.Size(), size)
	}
}

func TestReal_Preallocate_GrowsAnExistingShorterFile(t *testing.T) {
	fs := NewReal()
	path := filepath.Join(t.TempDir(), "existing.rrd")

	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	const size = 4096

	if err := fs.Preallocate(path, size); err != nil {
		t.Fatalf("Preallocate(): %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() after Preallocate: %v", err)
	}

	if info.Size() != size {
		t.Fatalf("size=%d, want %d", info.Size(), size)
	}
}

func TestReal_Preallocate_ZeroSizeIsANoOpCreate(t *testing.T) {
	fs := NewReal()
	path := filepath.Join(t.TempDir(), "empty.rrd")

	if err := fs.Preallocate(path, 0); err != nil {
		t.Fatalf("Preallocate(): %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
}
