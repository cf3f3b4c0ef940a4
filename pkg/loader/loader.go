package loader

import (
	"context"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/state"
)

// Loader turns an emitted artifact into an Executable.
type Loader interface {
	Load(ctx context.Context, data []byte) (Executable, error)
}

// Executable is the loaded form of a compilation unit.  It is used for a
// single invocation and then discarded.
type Executable interface {
	// EntryPoint resolves the generated callable described by ep.  Every
	// submission generates fresh type names so implementations must look
	// the descriptor up rather than assume a fixed name.
	EntryPoint(ep compile.EntryPoint) (Invocable, error)
}

// Invocable runs a submission body against the state store.  A nil value
// means the submission produced no result.
type Invocable func(ctx context.Context, store *state.Store) (any, error)

// Func adapts a function to the Loader interface.
type Func func(ctx context.Context, data []byte) (Executable, error)

// Load implements Loader.
func (f Func) Load(ctx context.Context, data []byte) (Executable, error) {
	return f(ctx, data)
}
