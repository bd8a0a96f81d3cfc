// Package initializer wires a service together: it builds the keyword table,
// the import resolver and the evaluation context, points the resolver's
// pipeline back at the evaluator, and seeds the environment with the system
// variables. Everything downstream of here is plumbing for what it makes.
package initializer

import (
	"io"
	"os"

	"github.com/pryzma-lang/pryzma/evaluator"
	"github.com/pryzma-lang/pryzma/macro"
	"github.com/pryzma-lang/pryzma/manifest"
	"github.com/pryzma-lang/pryzma/object"
	"github.com/pryzma-lang/pryzma/resolver"
	"github.com/pryzma-lang/pryzma/sysvars"
	"github.com/pryzma-lang/pryzma/token"
)

// A Service is one script plus the state needed to keep talking to it: its
// top-level environment, its keyword table, its module cache.
type Service struct {
	Ctx            *evaluator.Context
	Env            *object.Environment
	ScriptFilepath string
	Timestamp      int64
	Broken         bool
}

func NewService(mft *manifest.Manifest, out io.Writer, in io.Reader) *Service {
	macros := macro.NewTable(mft.Interpreter.MacroDepthLimit)
	res := resolver.New(mft.RootPaths())
	ctx := &evaluator.Context{
		Resolver:   res,
		Macros:     macros,
		Out:        out,
		In:         in,
		MemDefault: mft.Interpreter.AsmMemDefault,
	}
	// The resolver can't import the evaluator, so the service's own pipeline
	// is handed to it here.
	res.Pipeline = func(source, input string, env *object.Environment) *object.Error {
		result := evaluator.RunSource(source, input, ctx, env)
		if err, ok := result.(*object.Error); ok {
			return err
		}
		return nil
	}
	env := object.NewEnvironment()
	for name, sv := range sysvars.Sysvars {
		env.Set(name, sv.Dflt)
	}
	return &Service{Ctx: ctx, Env: env}
}

// RunScript evaluates a script file in the service's top-level environment.
func (service *Service) RunScript(scriptFilepath string) object.Object {
	source, err := os.ReadFile(scriptFilepath)
	if err != nil {
		service.Broken = true
		return object.CreateErr("init/source", token.Token{Source: scriptFilepath}, err.Error())
	}
	service.ScriptFilepath = scriptFilepath
	if info, statErr := os.Stat(scriptFilepath); statErr == nil {
		service.Timestamp = info.ModTime().UnixMilli()
	}
	result := evaluator.RunSource(scriptFilepath, string(source), service.Ctx, service.Env)
	if _, ok := result.(*object.Error); ok {
		service.Broken = true
	}
	return result
}

// Do evaluates one line typed at the service, in the same environment the
// script ran in.
func (service *Service) Do(line string) object.Object {
	return evaluator.RunSource("REPL input", line, service.Ctx, service.Env)
}

func (service *Service) NeedsUpdate() (bool, error) {
	if service.ScriptFilepath == "" {
		return false, nil
	}
	file, err := os.Stat(service.ScriptFilepath)
	if err != nil {
		return false, err
	}
	return file.ModTime().UnixMilli() != service.Timestamp, nil
}
