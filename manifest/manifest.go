// Package manifest handles babyvm.toml runtime configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/gphat/babyvm/vm"
)

// Manifest represents a babyvm.toml runtime configuration.
type Manifest struct {
	Heap  Heap        `toml:"heap"`
	Stats Stats       `toml:"stats"`
	Image ImageConfig `toml:"image"`

	// Dir is the directory containing the babyvm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Heap configures the VM arena.
type Heap struct {
	// RootCapacity is the fixed capacity of the root stack.
	RootCapacity int `toml:"root-capacity"`
	// InitialThreshold is the live-object count that triggers the first
	// collection. Collect recomputes it after every cycle.
	InitialThreshold int `toml:"initial-threshold"`
}

// Stats configures collection statistics recording.
type Stats struct {
	// DB is the path of the SQLite database for per-collection stats.
	// Empty disables recording.
	DB string `toml:"db"`
}

// ImageConfig configures heap image output.
type ImageConfig struct {
	Output string `toml:"output"`
}

// Load parses a babyvm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "babyvm.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults come from the runtime so the two cannot drift.
	if m.Heap.RootCapacity <= 0 {
		m.Heap.RootCapacity = vm.DefaultRootCapacity
	}
	if m.Heap.InitialThreshold <= 0 {
		m.Heap.InitialThreshold = vm.DefaultInitialThreshold
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a babyvm.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "babyvm.toml")); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}
