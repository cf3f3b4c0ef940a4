package starlarkeval

import (
	"fmt"
	"os"

	"go.starlark.net/starlark"

	"github.com/stackb/repl-session/pkg/reference"
)

// interpreter executes the libraries of a reference set.  Each library runs
// once; its frozen globals are shared by every submission that loads it.
type interpreter struct {
	libraries map[string]*reference.Library
	// modules holds the executed libraries.  A nil entry marks a library
	// whose execution is in progress.
	modules map[string]*module
}

type module struct {
	globals starlark.StringDict
	err     error
}

func newInterpreter(refs *reference.Set) *interpreter {
	i := &interpreter{
		libraries: make(map[string]*reference.Library),
		modules:   make(map[string]*module),
	}
	for _, lib := range refs.Libraries() {
		i.libraries[lib.Name] = lib
	}
	return i
}

// Load returns the globals of the named library, executing it first if
// needed.  It is the starlark.Thread Load hook of library threads.
func (i *interpreter) Load(_ *starlark.Thread, name string) (starlark.StringDict, error) {
	m, ok := i.modules[name]
	if m == nil {
		if ok {
			return nil, fmt.Errorf("cycle in load graph at library %q", name)
		}
		i.modules[name] = nil
		globals, err := i.exec(name)
		m = &module{globals: globals, err: err}
		i.modules[name] = m
	}
	return m.globals, m.err
}

// loaded returns an executed library without executing anything.  It is
// safe for concurrent use once every library has been executed.
func (i *interpreter) loaded(_ *starlark.Thread, name string) (starlark.StringDict, error) {
	m := i.modules[name]
	if m == nil {
		return nil, fmt.Errorf("library %q is not referenced", name)
	}
	return m.globals, m.err
}

func (i *interpreter) exec(name string) (starlark.StringDict, error) {
	lib, ok := i.libraries[name]
	if !ok {
		return nil, fmt.Errorf("library %q is not referenced", name)
	}

	f, err := libraryOptions.Parse(name+reference.DefaultExt, lib.Data, 0)
	if err != nil {
		return nil, err
	}
	program, err := starlark.FileProgram(f, builtinNamespaces.Has)
	if err != nil {
		return nil, err
	}

	thread := &starlark.Thread{
		Name:  "library " + name,
		Print: printStdout,
		Load:  i.Load,
	}
	globals, err := program.Init(thread, builtinNamespaces)
	if err != nil {
		return nil, runtimeError(err)
	}
	globals.Freeze()
	return globals, nil
}

// printStdout writes print() output to the current os.Stdout, which may be
// redirected by the caller.
func printStdout(_ *starlark.Thread, msg string) {
	fmt.Fprintln(os.Stdout, msg)
}
