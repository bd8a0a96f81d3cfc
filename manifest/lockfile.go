package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Lockfile records what the package manager has installed into the
// project's import roots. The core never talks to a registry itself; it just
// reads this file to know what is supposed to be there.
type Lockfile struct {
	Root     string          `yaml:"root"`
	Packages []LockedPackage `yaml:"packages"`
}

type LockedPackage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Source  string `yaml:"source"`
}

const lockfileName = "pryzma-lock.yaml"

func (m *Manifest) LockfilePath() string {
	return filepath.Join(m.Dir, lockfileName)
}

// LoadLockfile reads the project's lockfile. A project with no lockfile has
// simply installed nothing, so that is an empty Lockfile, not an error.
func (m *Manifest) LoadLockfile() (*Lockfile, error) {
	data, err := os.ReadFile(m.LockfilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Lockfile{}, nil
		}
		return nil, err
	}
	lock := &Lockfile{}
	if err := yaml.Unmarshal(data, lock); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", m.LockfilePath(), err)
	}
	lock.normalize()
	return lock, nil
}

func (m *Manifest) SaveLockfile(lock *Lockfile) error {
	lock.normalize()
	data, err := yaml.Marshal(lock)
	if err != nil {
		return err
	}
	return os.WriteFile(m.LockfilePath(), data, 0644)
}

// Add records a package, replacing any older record of the same name.
func (lock *Lockfile) Add(pkg LockedPackage) {
	for i, existing := range lock.Packages {
		if existing.Name == pkg.Name {
			lock.Packages[i] = pkg
			return
		}
	}
	lock.Packages = append(lock.Packages, pkg)
}

func (lock *Lockfile) Has(name string) bool {
	for _, pkg := range lock.Packages {
		if pkg.Name == name {
			return true
		}
	}
	return false
}

func (lock *Lockfile) normalize() {
	lock.Root = strings.TrimSpace(lock.Root)
	for i := range lock.Packages {
		lock.Packages[i].Name = strings.TrimSpace(lock.Packages[i].Name)
		lock.Packages[i].Version = strings.TrimSpace(lock.Packages[i].Version)
	}
	sort.Slice(lock.Packages, func(i, j int) bool {
		return lock.Packages[i].Name < lock.Packages[j].Name
	})
}
