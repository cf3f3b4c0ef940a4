package starlarkeval

import (
	"context"
	"fmt"
	"sort"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/reference"
)

// Namespace is the entry point namespace of starlark units.
const Namespace = "starlark"

// EntryPointFor returns the entry point of the submission at ordinal.
func EntryPointFor(ordinal int) compile.EntryPoint {
	return compile.EntryPoint{
		Namespace: Namespace,
		Type:      fmt.Sprintf("Submission#%d", ordinal),
		Method:    toplevelMethod,
	}
}

// Compiler is an in-process compile.Compiler for starlark submissions.
type Compiler struct {
	universes universes
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// unitArtifact is the compiler-private payload of a starlark unit.
type unitArtifact struct {
	program   *starlark.Program
	hasResult bool
}

// Compile implements compile.Compiler.
func (c *Compiler) Compile(ctx context.Context, req *compile.Request) (*compile.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := c.universes.get(req.References)
	diagnostics := append([]*compile.Diagnostic(nil), u.diagnostics...)

	ordinal := compile.NextOrdinal(req.Parent)
	entryPoint := EntryPointFor(ordinal)

	visible := make(map[string]bool)
	for _, name := range req.Parent.Visible() {
		visible[name] = true
	}
	isPredeclared := func(name string) bool {
		return name == priorBuiltin || u.namespaces[name] || visible[name]
	}

	// The first pass discovers the names the fragment binds.  Resolution
	// annotates the syntax tree, so the program is built from a second
	// parse.
	f, err := submissionOptions.Parse(entryPoint.Type, req.Source, 0)
	if err != nil {
		return &compile.Response{Diagnostics: append(diagnostics, errorDiagnostics(err, u.symbols)...)}, nil
	}
	hasResult := bindTrailingExpr(f)
	diagnostics = append(diagnostics, checkLoads(f, u)...)
	if err := resolve.File(f, isPredeclared, starlark.Universe.Has); err != nil {
		diagnostics = append(diagnostics, errorDiagnostics(err, u.symbols)...)
	}
	declared := globalNames(f)
	for _, name := range declared {
		if name == priorBuiltin {
			diagnostics = append(diagnostics, &compile.Diagnostic{
				Severity: compile.SeverityError,
				Filename: entryPoint.Type,
				Message:  fmt.Sprintf("%s is reserved", priorBuiltin),
			})
		}
	}
	if compile.HasErrors(diagnostics) {
		return &compile.Response{Diagnostics: diagnostics}, nil
	}

	var rebound []string
	for _, name := range declared {
		if visible[name] {
			rebound = append(rebound, name)
		}
	}

	g, err := submissionOptions.Parse(entryPoint.Type, req.Source, 0)
	if err != nil {
		return nil, fmt.Errorf("reparsing %s: %w", entryPoint.Type, err)
	}
	bindTrailingExpr(g)
	seedPriors(g, rebound)
	program, err := starlark.FileProgram(g, isPredeclared)
	if err != nil {
		return &compile.Response{Diagnostics: append(diagnostics, errorDiagnostics(err, u.symbols)...)}, nil
	}

	return &compile.Response{
		Diagnostics: diagnostics,
		Unit: &compile.Unit{
			ID:         compile.NewUnitID(req.Parent, req.Source),
			Parent:     req.Parent,
			Source:     req.Source,
			Ordinal:    ordinal,
			EntryPoint: entryPoint,
			Declared:   declared,
			Artifact: &unitArtifact{
				program:   program,
				hasResult: hasResult,
			},
		},
	}, nil
}

// Emit implements compile.Compiler.
func (c *Compiler) Emit(ctx context.Context, unit *compile.Unit) ([]byte, error) {
	a, ok := unit.Artifact.(*unitArtifact)
	if !ok {
		return nil, fmt.Errorf("%w: unit %s was not compiled by the starlark compiler", compile.ErrEmit, unit.EntryPoint.Type)
	}
	data, err := encodeArtifact(&artifact{
		slot:      unit.Ordinal,
		typeName:  unit.EntryPoint.Type,
		hasResult: a.hasResult,
		program:   a.program,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", compile.ErrEmit, err)
	}
	return data, nil
}

// globalNames returns the sorted top-level names bound by a resolved file.
func globalNames(f *syntax.File) []string {
	m, ok := f.Module.(*resolve.Module)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m.Globals))
	for _, b := range m.Globals {
		names = append(names, b.First.Name)
	}
	sort.Strings(names)
	return names
}

// checkLoads verifies that every load statement names a referenced
// library and symbols it exports.
func checkLoads(f *syntax.File, u *universe) []*compile.Diagnostic {
	var diagnostics []*compile.Diagnostic
	for _, stmt := range f.Stmts {
		load, ok := stmt.(*syntax.LoadStmt)
		if !ok {
			continue
		}
		module, _ := load.Module.Value.(string)
		exports, ok := u.exports[module]
		if !ok {
			diagnostics = append(diagnostics, diagnosticAt(compile.SeverityError, load.Module.TokenPos,
				fmt.Sprintf("load: library %q is not referenced", module)))
			continue
		}
		for _, from := range load.From {
			if !exports[from.Name] {
				diagnostics = append(diagnostics, diagnosticAt(compile.SeverityError, from.NamePos,
					fmt.Sprintf("load: library %q does not export %q", module, from.Name)))
			}
		}
	}
	return diagnostics
}

// Exports returns the sorted public symbols of a library in refs.
func (c *Compiler) Exports(refs *reference.Set, library string) []string {
	return sortedKeys(c.universes.get(refs).exports[library])
}
