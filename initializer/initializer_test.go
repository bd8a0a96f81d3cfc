package initializer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pryzma-lang/pryzma/initializer"
	"github.com/pryzma-lang/pryzma/manifest"
	"github.com/pryzma-lang/pryzma/object"
)

func writeScript(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newService(out *bytes.Buffer) *initializer.Service {
	return initializer.NewService(manifest.Default(), out, strings.NewReader(""))
}

func TestScriptThenRepl(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "main.pz", `
struct Point { x, y = 0 }
func dist2(p) { return p.x * p.x + p.y * p.y }
origin = Point(0)
print("ready")
`)
	out := &bytes.Buffer{}
	service := newService(out)
	result := service.RunScript(script)
	if err, ok := result.(*object.Error); ok {
		t.Fatalf("script failed: %s", err.Message)
	}
	if out.String() != "ready\n" {
		t.Errorf("script printed %q", out.String())
	}
	if service.Broken {
		t.Errorf("service marked broken")
	}

	answer := service.Do(`dist2(Point(3, 4))`)
	if answer.Inspect(object.ViewPryzmaLiteral) != `25` {
		t.Errorf("got %v", answer)
	}
	answer = service.Do(`origin.y`)
	if answer.Inspect(object.ViewPryzmaLiteral) != `0` {
		t.Errorf("got %v", answer)
	}
}

func TestImportsResolveAgainstRoots(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "geometry.pz", `
func area(w, h) { return w * h }
_secret = 99
`)
	scriptDir := t.TempDir()
	script := writeScript(t, scriptDir, "main.pz", `
import "geometry" as geo
use "geometry"
a = geo.area(3, 4)
b = area(2, 2)
`)
	mft := manifest.Default()
	mft.Imports.Roots = []string{root}
	out := &bytes.Buffer{}
	service := initializer.NewService(mft, out, strings.NewReader(""))
	result := service.RunScript(script)
	if err, ok := result.(*object.Error); ok {
		t.Fatalf("script failed: %s", err.Message)
	}
	if got := service.Do(`a + b`).Inspect(object.ViewPryzmaLiteral); got != `16` {
		t.Errorf("a + b = %s", got)
	}
	// The underscore name stayed private.
	if _, ok := service.Do(`_secret`).(*object.Error); !ok {
		t.Errorf("_secret leaked through use")
	}
	if _, ok := service.Do(`geo._secret`).(*object.Error); !ok {
		t.Errorf("_secret leaked through the module")
	}
	// Modules are read-only from outside.
	if err, ok := service.Do(`geo.area = 5`).(*object.Error); !ok || err.ErrorId != "eval/assign/module" {
		t.Errorf("assignment through a module was allowed")
	}
	// And the alias itself can't be rebound.
	if err, ok := service.Do(`geo = 5`).(*object.Error); !ok || err.ErrorId != "eval/assign/const" {
		t.Errorf("rebinding an import alias was allowed")
	}
}

func TestImportsAreCached(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "counted.pz", `print("loading")`)
	script := writeScript(t, dir, "main.pz", `
import "counted" as a
import "counted.pz" as b
`)
	out := &bytes.Buffer{}
	service := newService(out)
	if err, ok := service.RunScript(script).(*object.Error); ok {
		t.Fatalf("script failed: %s", err.Message)
	}
	if out.String() != "loading\n" {
		t.Errorf("module ran more than once: %q", out.String())
	}
	if got := service.Do(`a == b`).Inspect(object.ViewPryzmaLiteral); got != `true` {
		t.Errorf("two imports of one file differ")
	}
}

func TestCircularImport(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.pz", `import "b"`)
	writeScript(t, dir, "b.pz", `import "a"`)
	script := writeScript(t, dir, "main.pz", `import "a"`)
	service := newService(&bytes.Buffer{})
	err, ok := service.RunScript(script).(*object.Error)
	if !ok || err.ErrorId != "import/circular" {
		t.Errorf("expected import/circular, got %v", err)
	}
}

func TestKeywordsSpanScriptAndRepl(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "main.pz", `
keyword unless(c, b) { if not (c) { b } }
x = 0
`)
	service := newService(&bytes.Buffer{})
	if err, ok := service.RunScript(script).(*object.Error); ok {
		t.Fatalf("script failed: %s", err.Message)
	}
	service.Do(`unless(x == 1, x = 3)`)
	if got := service.Do(`x`).Inspect(object.ViewPryzmaLiteral); got != `3` {
		t.Errorf("x = %s", got)
	}
	service.Do(`delkeyword unless`)
	if _, ok := service.Do(`unless(x == 1, x = 4)`).(*object.Error); !ok {
		t.Errorf("unless survived delkeyword")
	}
}

func TestAsmMemDefaultComesFromManifest(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "main.pz", `
asm peek() -> rax {
	mov rax, [rsp - 8]
}
`)
	mft := manifest.Default()
	mft.Interpreter.AsmMemDefault = 8
	service := initializer.NewService(mft, &bytes.Buffer{}, strings.NewReader(""))
	if err, ok := service.RunScript(script).(*object.Error); ok {
		t.Fatalf("script failed: %s", err.Message)
	}
	// With only 8 bytes, rsp - 8 is address 0 and the load succeeds; the
	// same load one byte further would not.
	if got := service.Do(`peek()`).Inspect(object.ViewPryzmaLiteral); got != `0` {
		t.Errorf("peek() = %s", got)
	}
}

func TestMissingScript(t *testing.T) {
	service := newService(&bytes.Buffer{})
	err, ok := service.RunScript("/no/such/place.pz").(*object.Error)
	if !ok || err.ErrorId != "init/source" {
		t.Errorf("expected init/source, got %v", err)
	}
	if !service.Broken {
		t.Errorf("service should be broken")
	}
}
