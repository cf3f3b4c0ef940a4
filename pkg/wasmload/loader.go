// Package wasmload loads units compiled to WebAssembly.  The runtime
// exposes a host module "repl" through which the code reads and writes
// the submission state store:
//
//	state_get(slot i32) i64
//	state_set(slot i32, value i64)
package wasmload

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/state"
)

// HostModule is the name of the module importing the state store.
const HostModule = "repl"

// Loader implements loader.Loader over a wazero runtime.
type Loader struct {
	runtime wazero.Runtime
}

// NewLoader creates the runtime and instantiates the host modules.  The
// runtime lives until Close.
func NewLoader(ctx context.Context) (*Loader, error) {
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("instantiating wasi: %w", err)
	}
	if _, err := r.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().WithFunc(stateGet).Export("state_get").
		NewFunctionBuilder().WithFunc(stateSet).Export("state_set").
		Instantiate(ctx); err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("instantiating %s host module: %w", HostModule, err)
	}

	return &Loader{runtime: r}, nil
}

// Close releases the runtime and every module compiled by it.
func (l *Loader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// Load implements loader.Loader.
func (l *Loader) Load(ctx context.Context, data []byte) (loader.Executable, error) {
	compiled, err := l.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("compiling wasm module: %w", err)
	}
	return &executable{runtime: l.runtime, compiled: compiled}, nil
}

type executable struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// EntryPoint implements loader.Executable.  The method must be an export
// taking no parameters.
func (e *executable) EntryPoint(ep compile.EntryPoint) (loader.Invocable, error) {
	def, ok := e.compiled.ExportedFunctions()[ep.Method]
	if !ok {
		return nil, fmt.Errorf("entry point %s not found: module does not export %q", ep, ep.Method)
	}
	if n := len(def.ParamTypes()); n != 0 {
		return nil, fmt.Errorf("entry point %s takes %d parameters, want none", ep, n)
	}
	return func(ctx context.Context, store *state.Store) (any, error) {
		return e.invoke(ctx, ep, store)
	}, nil
}

func (e *executable) invoke(ctx context.Context, ep compile.EntryPoint, store *state.Store) (any, error) {
	config := wazero.NewModuleConfig().
		WithName(ep.Type).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithStartFunctions()

	ctx = context.WithValue(ctx, storeKey{}, store)
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, config)
	if err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", ep.Type, err)
	}
	defer mod.Close(ctx)

	fn := mod.ExportedFunction(ep.Method)
	results, err := fn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return decodeResult(fn.Definition().ResultTypes()[0], results[0]), nil
}

func decodeResult(t api.ValueType, v uint64) any {
	switch t {
	case api.ValueTypeI32:
		return int64(api.DecodeI32(v))
	case api.ValueTypeI64:
		return int64(v)
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	case api.ValueTypeF64:
		return api.DecodeF64(v)
	default:
		return v
	}
}

type storeKey struct{}

func storeFrom(ctx context.Context) *state.Store {
	store, _ := ctx.Value(storeKey{}).(*state.Store)
	return store
}

// stateGet returns the integer held by a slot, 0 when the slot is empty
// or not an integer.
func stateGet(ctx context.Context, slot int32) int64 {
	store := storeFrom(ctx)
	if store == nil {
		return 0
	}
	switch v := store.Get(int(slot)).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(v)
	default:
		return 0
	}
}

// stateSet writes a slot.  Writing outside the store traps the call.
func stateSet(ctx context.Context, slot int32, value int64) {
	store := storeFrom(ctx)
	if store == nil {
		panic("state_set called outside an invocation")
	}
	if err := store.Set(int(slot), value); err != nil {
		panic(err)
	}
}
