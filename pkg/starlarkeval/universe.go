package starlarkeval

import (
	"fmt"
	"sync"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/reference"
)

// universe is the compile-time view of a reference set: what each library
// exports and which implicit namespaces are bound.
type universe struct {
	// exports maps library name to its exported symbols.
	exports map[string]map[string]bool
	// namespaces are the bound implicit namespace names.
	namespaces map[string]bool
	symbols    *reference.SymbolIndex
	// diagnostics are reported with every compilation against the set.
	diagnostics []*compile.Diagnostic
}

// universes caches universe computations by reference set digest.
type universes struct {
	mu    sync.Mutex
	cache map[string]*universe
}

func (u *universes) get(refs *reference.Set) *universe {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cache == nil {
		u.cache = make(map[string]*universe)
	}
	key := refs.Digest()
	if v, ok := u.cache[key]; ok {
		return v
	}
	v := newUniverse(refs)
	u.cache[key] = v
	return v
}

func newUniverse(refs *reference.Set) *universe {
	u := &universe{
		exports:    make(map[string]map[string]bool),
		namespaces: make(map[string]bool),
		symbols:    reference.NewSymbolIndex(),
	}

	for _, lib := range refs.Libraries() {
		names, err := libraryExports(lib)
		if err != nil {
			u.diagnostics = append(u.diagnostics, &compile.Diagnostic{
				Severity: compile.SeverityError,
				Message:  fmt.Sprintf("library %q: %v", lib.Name, err),
			})
			continue
		}
		u.exports[lib.Name] = names
		for name := range names {
			u.symbols.Put(name, lib.Name)
		}
	}

	for _, ns := range refs.Namespaces() {
		if _, ok := u.exports[ns]; ok || IsBuiltinNamespace(ns) {
			u.namespaces[ns] = true
			continue
		}
		u.diagnostics = append(u.diagnostics, &compile.Diagnostic{
			Severity: compile.SeverityError,
			Message:  fmt.Sprintf("unknown implicit namespace %q: not a builtin namespace nor a referenced library", ns),
		})
	}

	return u
}

// libraryExports parses and resolves a library source and returns its
// public top-level names.
func libraryExports(lib *reference.Library) (map[string]bool, error) {
	f, err := libraryOptions.Parse(lib.Name+reference.DefaultExt, lib.Data, 0)
	if err != nil {
		return nil, err
	}
	if err := resolve.File(f, builtinNamespaces.Has, starlark.Universe.Has); err != nil {
		return nil, err
	}
	names := make(map[string]bool)
	for _, b := range f.Module.(*resolve.Module).Globals {
		if isExported(b.First.Name) {
			names[b.First.Name] = true
		}
	}
	return names, nil
}
