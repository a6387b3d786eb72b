package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gphat/babyvm/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "babyvm.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing babyvm.toml: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[heap]
root-capacity = 64
initial-threshold = 4

[stats]
db = "collections.db"

[image]
output = "heap.bvmi"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Heap.RootCapacity != 64 {
		t.Errorf("RootCapacity = %d, want 64", m.Heap.RootCapacity)
	}
	if m.Heap.InitialThreshold != 4 {
		t.Errorf("InitialThreshold = %d, want 4", m.Heap.InitialThreshold)
	}
	if m.Stats.DB != "collections.db" {
		t.Errorf("Stats.DB = %q, want %q", m.Stats.DB, "collections.db")
	}
	if m.Image.Output != "heap.bvmi" {
		t.Errorf("Image.Output = %q, want %q", m.Image.Output, "heap.bvmi")
	}
	if m.Dir == "" {
		t.Error("Dir should be set to the manifest directory")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Heap.RootCapacity != vm.DefaultRootCapacity {
		t.Errorf("RootCapacity = %d, want default %d", m.Heap.RootCapacity, vm.DefaultRootCapacity)
	}
	if m.Heap.InitialThreshold != vm.DefaultInitialThreshold {
		t.Errorf("InitialThreshold = %d, want default %d", m.Heap.InitialThreshold, vm.DefaultInitialThreshold)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of empty directory should fail")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[heap\nroot-capacity = ")

	if _, err := Load(dir); err == nil {
		t.Error("Load of invalid TOML should fail")
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[heap]\nroot-capacity = 32\n")

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil, want manifest from ancestor")
	}
	if m.Heap.RootCapacity != 32 {
		t.Errorf("RootCapacity = %d, want 32", m.Heap.RootCapacity)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Error("FindAndLoad in a bare tree should return nil")
	}
}
