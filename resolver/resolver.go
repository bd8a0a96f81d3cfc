// Package resolver loads modules from disk: it finds the file, guards
// against import cycles, and caches the result so that every import of a
// module anywhere in a service yields the very same Module value.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/token"
)

// Pipeline is how a resolver runs module source without importing the
// evaluator: the initializer injects the service's own lex-expand-parse-eval
// chain here.
type Pipeline func(source, input string, env *object.Environment) *object.Error

type Resolver struct {
	Roots    []string
	Pipeline Pipeline

	cache   map[string]*object.Module
	loading map[string]bool
}

func New(roots []string) *Resolver {
	return &Resolver{
		Roots:   roots,
		cache:   make(map[string]*object.Module),
		loading: make(map[string]bool),
	}
}

// Load resolves and evaluates the module at path. The path is tried relative
// to the importing file's directory first and then against each search root.
// A module already in the cache is returned as-is, with nothing re-run.
func (r *Resolver) Load(path, fromDir string, tok token.Token) (*object.Module, *object.Error) {
	if r.Pipeline == nil {
		return nil, object.CreateErr("eval/injection", tok)
	}
	canonical, err := r.resolve(path, fromDir)
	if err != nil {
		return nil, object.CreateErr("import/found", tok, path)
	}
	if mod, ok := r.cache[canonical]; ok {
		return mod, nil
	}
	if r.loading[canonical] {
		return nil, object.CreateErr("import/circular", tok, path)
	}
	source, err := os.ReadFile(canonical)
	if err != nil {
		return nil, object.CreateErr("import/read", tok, err.Error())
	}
	r.loading[canonical] = true
	defer delete(r.loading, canonical)

	env := object.NewEnvironment()
	mod := &object.Module{Name: ModuleName(canonical), Path: canonical, Env: env}
	if runtimeErr := r.Pipeline(canonical, string(source), env); runtimeErr != nil {
		return nil, runtimeErr
	}
	r.cache[canonical] = mod
	return mod, nil
}

func (r *Resolver) resolve(path, fromDir string) (string, error) {
	candidates := []string{}
	if fromDir != "" {
		candidates = append(candidates, filepath.Join(fromDir, path))
	}
	for _, root := range r.Roots {
		candidates = append(candidates, filepath.Join(root, path))
	}
	if filepath.IsAbs(path) {
		candidates = []string{path}
	}
	for _, candidate := range candidates {
		for _, withExt := range []string{candidate, candidate + ".pz"} {
			info, err := os.Stat(withExt)
			if err != nil || info.IsDir() {
				continue
			}
			return Canonical(withExt)
		}
	}
	return "", os.ErrNotExist
}

// Canonical is the cache key: absolute and with symlinks resolved, so two
// spellings of one file can't smuggle in two copies of its module.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
