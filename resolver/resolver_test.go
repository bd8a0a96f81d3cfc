package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/token"
)

// The test pipeline just records which files were run; the real one is
// injected by the initializer.
func testPipeline(ran *[]string, r *Resolver) Pipeline {
	return func(source, input string, env *object.Environment) *object.Error {
		*ran = append(*ran, source)
		// A module whose text names another file imports it, so that the
		// tests can build chains and cycles out of one-line files.
		path := string(input)
		if len(path) > 0 && path[len(path)-1] == '\n' {
			path = path[:len(path)-1]
		}
		if path != "" {
			_, err := r.Load(path, filepath.Dir(source), token.Token{Source: source})
			return err
		}
		env.Set("answer", &object.Integer{Value: 42})
		return nil
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndCacheIdentity(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "geo.pz", "")

	r := New([]string{dir})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	mod1, err := r.Load("geo.pz", "", token.Token{})
	if err != nil {
		t.Fatalf("load failed: %s", err.Message)
	}
	if mod1.Name != "geo" {
		t.Errorf("module name wrong: %s", mod1.Name)
	}
	if v, ok := mod1.Env.Get("answer"); !ok || v.(*object.Integer).Value != 42 {
		t.Error("module body was not evaluated")
	}

	mod2, err := r.Load("geo.pz", "", token.Token{})
	if err != nil {
		t.Fatalf("second load failed: %s", err.Message)
	}
	if mod1 != mod2 {
		t.Error("second import did not return the identical module value")
	}
	if len(ran) != 1 {
		t.Errorf("module body ran %d times, want 1", len(ran))
	}
}

func TestExtensionInference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "strlib.pz", "")

	r := New([]string{dir})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	if _, err := r.Load("strlib", "", token.Token{}); err != nil {
		t.Fatalf("load without extension failed: %s", err.Message)
	}
}

func TestRelativeBeforeRoots(t *testing.T) {
	rootDir := t.TempDir()
	localDir := t.TempDir()
	writeFile(t, rootDir, "lib.pz", "")
	writeFile(t, localDir, "lib.pz", "")

	r := New([]string{rootDir})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	mod, err := r.Load("lib.pz", localDir, token.Token{})
	if err != nil {
		t.Fatalf("load failed: %s", err.Message)
	}
	want, _ := Canonical(filepath.Join(localDir, "lib.pz"))
	if mod.Path != want {
		t.Errorf("importing file's directory should win: got %s", mod.Path)
	}
}

func TestModuleNotFound(t *testing.T) {
	r := New([]string{t.TempDir()})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	_, err := r.Load("nosuch.pz", "", token.Token{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.ErrorId != "import/found" {
		t.Errorf("error id wrong: %s", err.ErrorId)
	}
}

func TestCircularImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.pz", "b.pz\n")
	writeFile(t, dir, "b.pz", "a.pz\n")

	r := New([]string{dir})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	_, err := r.Load("a.pz", "", token.Token{})
	if err == nil {
		t.Fatal("expected a circular import error")
	}
	if err.ErrorId != "import/circular" {
		t.Errorf("error id wrong: %s", err.ErrorId)
	}
}

func TestDiamondIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.pz", "left.pz\n")
	writeFile(t, dir, "left.pz", "shared.pz\n")
	writeFile(t, dir, "shared.pz", "")

	r := New([]string{dir})
	ran := []string{}
	r.Pipeline = testPipeline(&ran, r)

	if _, err := r.Load("top.pz", "", token.Token{}); err != nil {
		t.Fatalf("diamond import failed: %s", err.Message)
	}
	if _, err := r.Load("shared.pz", "", token.Token{}); err != nil {
		t.Fatalf("re-import of shared failed: %s", err.Message)
	}
	if len(ran) != 3 {
		t.Errorf("ran %d module bodies, want 3", len(ran))
	}
}

func TestLoadWithoutPipeline(t *testing.T) {
	r := New(nil)
	_, err := r.Load("anything", ".", token.Token{Source: "test"})
	if err == nil || err.ErrorId != "eval/injection" {
		t.Errorf("expected eval/injection, got %v", err)
	}
}
