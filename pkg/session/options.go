package session

import (
	"github.com/pcj/mobyprogress"
	"github.com/rs/zerolog"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/format"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/progress"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/starlarkeval"
)

// LoaderFactory builds the loader of a session once its reference set is
// known.
type LoaderFactory func(refs *reference.Set) (loader.Loader, error)

type Option func(*Session) *Session

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) *Session {
		s.logger = logger
		return s
	}
}

// WithProvider sets where Initialize fetches libraries from.
func WithProvider(provider reference.Provider) Option {
	return func(s *Session) *Session {
		s.provider = provider
		return s
	}
}

func WithProgress(output mobyprogress.Output) Option {
	return func(s *Session) *Session {
		s.progress = output
		return s
	}
}

func WithFormatter(formatter format.Formatter) Option {
	return func(s *Session) *Session {
		s.formatter = formatter
		return s
	}
}

func WithCompiler(compiler compile.Compiler) Option {
	return func(s *Session) *Session {
		s.compiler = compiler
		return s
	}
}

// WithLoader uses a fixed loader regardless of the reference set.
func WithLoader(l loader.Loader) Option {
	return WithLoaderFactory(func(*reference.Set) (loader.Loader, error) {
		return l, nil
	})
}

func WithLoaderFactory(factory LoaderFactory) Option {
	return func(s *Session) *Session {
		s.newLoader = factory
		return s
	}
}

// starlarkLoader is the default LoaderFactory.
func starlarkLoader(refs *reference.Set) (loader.Loader, error) {
	return starlarkeval.NewLoader(refs)
}

func defaultOptions() []Option {
	return []Option{
		WithLogger(zerolog.Nop()),
		WithProvider(reference.Host),
		WithProgress(progress.Discard),
		WithFormatter(starlarkeval.Formatter),
		WithCompiler(starlarkeval.NewCompiler()),
		WithLoaderFactory(starlarkLoader),
	}
}
