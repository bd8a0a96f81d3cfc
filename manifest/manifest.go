// Package manifest handles pryzma.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pryzma-lang/pryzma/macro"
)

// A Manifest is the contents of a pryzma.toml file. Every field has a
// default, so a project without one still runs.
type Manifest struct {
	Project     Project     `toml:"project"`
	Interpreter Interpreter `toml:"interpreter"`
	Imports     Imports     `toml:"imports"`
	Database    Database    `toml:"database"`

	// Dir is the directory containing the pryzma.toml file, set at load time.
	Dir string `toml:"-"`
}

type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Entry   string `toml:"entry"`
}

// Interpreter holds the knobs of the execution core itself.
type Interpreter struct {
	// MacroDepthLimit bounds keyword expansion before it is declared
	// runaway.
	MacroDepthLimit int `toml:"macro-depth-limit"`
	// AsmMemDefault is the memory size in bytes given to an asm block that
	// doesn't declare one.
	AsmMemDefault int64 `toml:"asm-mem-default"`
}

// Imports lists the search roots that module paths are resolved against,
// after the importing file's own directory.
type Imports struct {
	Roots []string `toml:"roots"`
}

// Database configures where the hub keeps its service and user records.
type Database struct {
	Driver        string `toml:"driver"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Name          string `toml:"name"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
	ServerAddress string `toml:"server-address"`
}

func Default() *Manifest {
	return &Manifest{
		Interpreter: Interpreter{
			MacroDepthLimit: macro.DefaultDepthLimit,
			AsmMemDefault:   256,
		},
	}
}

// Load parses a pryzma.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "pryzma.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Interpreter.MacroDepthLimit == 0 {
		m.Interpreter.MacroDepthLimit = macro.DefaultDepthLimit
	}
	if m.Interpreter.AsmMemDefault == 0 {
		m.Interpreter.AsmMemDefault = 256
	}

	return m, nil
}

// FindAndLoad walks up from startDir looking for a pryzma.toml. A project
// without one gets the defaults and Dir left empty.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, "pryzma.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// RootPaths returns absolute paths for the configured import roots.
func (m *Manifest) RootPaths() []string {
	paths := []string{}
	for _, root := range m.Imports.Roots {
		if filepath.IsAbs(root) || m.Dir == "" {
			paths = append(paths, root)
			continue
		}
		paths = append(paths, filepath.Join(m.Dir, root))
	}
	return paths
}
