package starlarkeval

import (
	"context"
	"fmt"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/state"
)

// Loader is a loader.Loader for artifacts emitted by Compiler.
type Loader struct {
	interp *interpreter
	// namespaces are bound in the environment of every submission.
	namespaces starlark.StringDict

	// envs holds the predeclared environment of each invoked slot, per
	// store.  Starlark reads predeclared names from it at call time.
	mu   sync.Mutex
	envs map[*state.Store][]starlark.StringDict
}

// NewLoader executes every library of refs and binds the implicit
// namespaces.  Unknown namespaces are left unbound; the compiler reports
// them.
func NewLoader(refs *reference.Set) (*Loader, error) {
	l := &Loader{
		interp:     newInterpreter(refs),
		namespaces: make(starlark.StringDict),
		envs:       make(map[*state.Store][]starlark.StringDict),
	}
	for _, lib := range refs.Libraries() {
		if _, err := l.interp.Load(nil, lib.Name); err != nil {
			return nil, fmt.Errorf("library %q: %w", lib.Name, err)
		}
	}
	for _, ns := range refs.Namespaces() {
		if v, ok := builtinNamespaces[ns]; ok {
			l.namespaces[ns] = v
			continue
		}
		if m, ok := l.interp.modules[ns]; ok && m != nil && m.err == nil {
			l.namespaces[ns] = &starlarkstruct.Module{
				Name:    ns,
				Members: exported(m.globals),
			}
		}
	}
	return l, nil
}

// Load implements loader.Loader.
func (l *Loader) Load(ctx context.Context, data []byte) (loader.Executable, error) {
	a, err := decodeArtifact(data)
	if err != nil {
		return nil, err
	}
	return &executable{loader: l, artifact: a}, nil
}

type executable struct {
	loader   *Loader
	artifact *artifact
}

// EntryPoint implements loader.Executable.
func (e *executable) EntryPoint(ep compile.EntryPoint) (loader.Invocable, error) {
	if ep.Namespace != Namespace || ep.Type != e.artifact.typeName || ep.Method != toplevelMethod {
		return nil, fmt.Errorf("entry point %s not found: artifact provides %s", ep, EntryPointFor(e.artifact.slot))
	}
	return e.invoke, nil
}

func (e *executable) invoke(ctx context.Context, store *state.Store) (any, error) {
	slot := e.artifact.slot
	if slot >= store.Len() {
		return nil, fmt.Errorf("state store has %d slots, submission writes slot %d", store.Len(), slot)
	}

	env := e.loader.environment(store, slot)

	thread := &starlark.Thread{
		Name:  e.artifact.typeName,
		Print: printStdout,
		Load:  e.loader.interp.loaded,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	globals, err := e.artifact.program.Init(thread, env)
	// the slot keeps whatever the submission bound before a fault
	if setErr := store.Set(slot, globals); setErr != nil {
		return nil, setErr
	}
	e.loader.publish(store, slot, globals)
	if err != nil {
		return nil, runtimeError(err)
	}

	if !e.artifact.hasResult {
		return nil, nil
	}
	if v, ok := globals[resultName]; ok && v != starlark.None {
		return v, nil
	}
	return nil, nil
}

// environment builds the predeclared names of a submission writing slot:
// the namespaces, then the globals of every earlier slot, newest last.  The
// map is kept so that later submissions can publish into it.
func (l *Loader) environment(store *state.Store, slot int) starlark.StringDict {
	env := make(starlark.StringDict, len(l.namespaces))
	for name, value := range l.namespaces {
		env[name] = value
	}
	for i := 0; i < slot; i++ {
		if globals, ok := store.Get(i).(starlark.StringDict); ok {
			for name, value := range globals {
				env[name] = value
			}
		}
	}
	env[priorBuiltin] = starlark.NewBuiltin(priorBuiltin, prior(store, slot))

	l.mu.Lock()
	defer l.mu.Unlock()
	envs := l.envs[store]
	for len(envs) <= slot {
		envs = append(envs, nil)
	}
	envs[slot] = env
	l.envs[store] = envs
	return env
}

// publish writes the names bound by slot into the environments of the
// earlier slots, so their functions see the newest bindings.
func (l *Loader) publish(store *state.Store, slot int, globals starlark.StringDict) {
	l.mu.Lock()
	defer l.mu.Unlock()
	envs := l.envs[store]
	for i := 0; i < slot && i < len(envs); i++ {
		if envs[i] == nil {
			continue
		}
		for name, value := range globals {
			envs[i][name] = value
		}
	}
}

// prior implements the seeding builtin: the newest value of a name among
// the slots before slot, or None.
func prior(store *state.Store, slot int) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
			return nil, err
		}
		for i := slot - 1; i >= 0; i-- {
			if globals, ok := store.Get(i).(starlark.StringDict); ok {
				if v, ok := globals[name]; ok {
					return v, nil
				}
			}
		}
		return starlark.None, nil
	}
}
