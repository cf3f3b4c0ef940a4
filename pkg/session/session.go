package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pcj/mobyprogress"
	"github.com/rs/zerolog"
	"github.com/tevino/abool/v2"

	"github.com/stackb/repl-session/pkg/capture"
	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/format"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/state"
)

// debugSession is a debug flag for use by a developer
const debugSession = false

// Session evaluates a sequence of submissions, each compiled against the
// previous successful one and executed with access to the top-level state
// of all of them.  Run calls must be serialized; a concurrent Run is
// rejected with ErrBusy.
type Session struct {
	logger    zerolog.Logger
	provider  reference.Provider
	progress  mobyprogress.Output
	formatter format.Formatter
	compiler  compile.Compiler
	newLoader LoaderFactory

	// initialized is set when Initialize starts, ready when it succeeds.
	initialized *abool.AtomicBool
	ready       *abool.AtomicBool
	busy        *abool.AtomicBool

	references *reference.Set
	loader     loader.Loader
	// current is the last successfully compiled unit.
	current *compile.Unit
	// index counts the committed submissions.
	index int
	store *state.Store
}

func New(options ...Option) *Session {
	s := &Session{
		initialized: abool.New(),
		ready:       abool.New(),
		busy:        abool.New(),
	}
	for _, opt := range append(defaultOptions(), options...) {
		s = opt(s)
	}
	return s
}

// Initialize establishes the reference set.  A nil libraryNames selects
// every library registered in the host process plus the core library; nil
// namespaces selects reference.DefaultNamespaces.  Any library that cannot
// be fetched fails initialization, after which Initialize may be retried.
// Once it has succeeded, further calls return ErrAlreadyInitialized.
func (s *Session) Initialize(ctx context.Context, libraryNames, namespaces []string) error {
	if !s.initialized.SetToIf(false, true) {
		return ErrAlreadyInitialized
	}

	if libraryNames == nil {
		libraryNames = reference.DefaultLibraries()
	}
	if namespaces == nil {
		namespaces = reference.DefaultNamespaces
	}
	libraryNames = dedupe(libraryNames)

	s.logger.Debug().
		Strs("libraries", libraryNames).
		Strs("namespaces", namespaces).
		Msg("initializing session")

	refs, err := reference.Bootstrap(ctx, s.provider, libraryNames, namespaces, s.progress)
	if err != nil {
		s.initialized.UnSet()
		return fmt.Errorf("initializing session: %w", err)
	}
	l, err := s.newLoader(refs)
	if err != nil {
		s.initialized.UnSet()
		return fmt.Errorf("initializing session loader: %w", err)
	}

	s.references = refs
	s.loader = l
	s.store = state.New()
	s.ready.Set()

	s.logger.Debug().Str("digest", refs.Digest()).Msg("session initialized")
	return nil
}

// Run evaluates one fragment.  Every failure is reported in the returned
// Result; a compile or emission failure leaves the session unchanged.
func (s *Session) Run(ctx context.Context, fragment string) *Result {
	if !s.ready.IsSet() {
		return errorResult(ErrNotInitialized)
	}
	if !s.busy.SetToIf(false, true) {
		return errorResult(ErrBusy)
	}
	defer s.busy.UnSet()

	logger := s.logger.With().Int("submission", s.index).Logger()
	if debugSession {
		logger.Debug().Str("source", fragment).Msg("run")
	}

	resp, err := s.compiler.Compile(ctx, &compile.Request{
		Source:     fragment,
		References: s.references,
		Parent:     s.current,
	})
	if err != nil {
		logger.Debug().Err(err).Msg("compiler failed")
		return errorResult(fmt.Errorf("compile: %w", err))
	}

	result := &Result{Diagnostics: resp.Diagnostics}
	if compile.HasErrors(resp.Diagnostics) || resp.Unit == nil {
		result.Error = compile.Errors(resp.Diagnostics)
		if len(result.Error) == 0 {
			result.Error = []string{"compile: compiler returned no unit"}
		}
		logger.Debug().Int("errors", len(result.Error)).Msg("compile failed")
		return result
	}
	unit := resp.Unit
	if want := compile.NextOrdinal(s.current); unit.Ordinal != want {
		result.Error = []string{fmt.Sprintf("compile: compiler returned unit at position %d, want %d", unit.Ordinal, want)}
		return result
	}

	data, err := s.compiler.Emit(ctx, unit)
	if err != nil {
		if !errors.Is(err, compile.ErrEmit) {
			err = fmt.Errorf("%w: %v", compile.ErrEmit, err)
		}
		logger.Debug().Err(err).Msg("emit failed")
		result.Error = []string{err.Error()}
		return result
	}

	// commit: the unit is the chain parent from now on, whatever happens
	// while running it
	s.index++
	s.current = unit
	logger.Debug().
		Str("entrypoint", unit.EntryPoint.String()).
		Strs("declared", unit.Declared).
		Int("artifact", len(data)).
		Msg("committed")

	exe, err := s.loader.Load(ctx, data)
	if err != nil {
		return fault(result, fmt.Errorf("loading %s: %w", unit.EntryPoint.Type, err))
	}
	invoke, err := exe.EntryPoint(unit.EntryPoint)
	if err != nil {
		return fault(result, err)
	}

	s.store.Ensure(unit.Ordinal + 1)

	var value any
	output, err := capture.Stdout(func() error {
		var err error
		value, err = s.invoke(ctx, invoke)
		return err
	})
	if err != nil {
		logger.Debug().Err(err).Msg("runtime fault")
		return fault(result, err)
	}

	if value != nil {
		result.Output = append(result.Output, s.formatter.Format(value))
	}
	if strings.TrimSpace(output) != "" {
		result.Output = append(result.Output, output)
	}
	return result
}

// invoke runs the entry point, converting panics and cancellation into
// errors.
func (s *Session) invoke(ctx context.Context, fn loader.Invocable) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, err = fn(ctx, s.store)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func fault(result *Result, err error) *Result {
	result.Error = append(result.Error, err.Error())
	return result
}

// Current returns the last successfully compiled unit, nil before the
// first.
func (s *Session) Current() *compile.Unit {
	return s.current
}

// Index returns the number of committed submissions.
func (s *Session) Index() int {
	return s.index
}

// References returns the reference set, nil before Initialize.
func (s *Session) References() *reference.Set {
	return s.references
}

// Store returns the submission state store, nil before Initialize.
func (s *Session) Store() *state.Store {
	return s.store
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
