package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stackb/repl-session/pkg/collections"
	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/execload"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/remotecompile"
	"github.com/stackb/repl-session/pkg/session"
	"github.com/stackb/repl-session/pkg/starlarkeval"
	"github.com/stackb/repl-session/pkg/wasmload"
)

// config holds the command line configuration of the repl.
type config struct {
	libraryDir string
	libraryURL string
	libraries  collections.StringSlice
	namespaces collections.StringSlice
	logLevel   string
	native     bool

	logger zerolog.Logger
	remote *remotecompile.Client
	wasm   *wasmload.Loader
}

func newConfig() *config {
	return &config{
		remote: remotecompile.NewClient(),
	}
}

func (c *config) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.libraryDir, "library_dir", "", "directory holding <name>.star library sources")
	fs.StringVar(&c.libraryURL, "library_url", "", "base url serving <name>.star library sources")
	fs.Var(&c.libraries, "library", "library to reference (repeatable); defaults to the host libraries")
	fs.Var(&c.namespaces, "namespace", "implicit namespace (repeatable); defaults to "+fmt.Sprint(reference.DefaultNamespaces))
	fs.StringVar(&c.logLevel, "log_level", "", "log level (trace, debug, info, warn, error); overrides $REPL_LOG_LEVEL")
	fs.BoolVar(&c.native, "native_artifacts", true, "load wasm and native executable artifacts produced by a remote compiler")
	c.remote.RegisterFlags(fs)
}

func (c *config) checkFlags(fs *flag.FlagSet, logger zerolog.Logger) error {
	c.logger = logger
	if !c.remote.Enabled() {
		c.remote = nil
		return nil
	}
	c.remote = remotecompile.WithLogger(logger)(c.remote)
	libraries, err := c.libraryNames()
	if err != nil {
		return err
	}
	var args []string
	for _, name := range libraries {
		args = append(args, "-library="+name)
	}
	for _, name := range c.namespaces {
		args = append(args, "-namespace="+name)
	}
	if c.libraryDir != "" {
		args = append(args, "-library_dir="+c.libraryDir)
	}
	if c.libraryURL != "" {
		args = append(args, "-library_url="+c.libraryURL)
	}
	return c.remote.CheckFlags(fs, args...)
}

func (c *config) close(ctx context.Context) {
	if c.remote != nil {
		if err := c.remote.Stop(); err != nil {
			c.logger.Warn().Err(err).Msg("stopping compiler backend")
		}
	}
	if c.wasm != nil {
		c.wasm.Close(ctx)
	}
}

// provider serves libraries from the configured directory or url, then
// from the host process.
func (c *config) provider() reference.Provider {
	return newProvider(c.libraryDir, c.libraryURL)
}

func newProvider(dir, url string) reference.Provider {
	var providers []reference.Provider
	if dir != "" {
		providers = append(providers, reference.NewFileProvider(dir))
	}
	if url != "" {
		providers = append(providers, reference.NewHTTPProvider(url))
	}
	return reference.Chain(append(providers, reference.Host)...)
}

func (c *config) compiler() compile.Compiler {
	if c.remote != nil {
		return c.remote
	}
	return starlarkeval.NewCompiler()
}

// loaderFactory loads starlark artifacts, plus wasm modules and native
// executables when enabled.
func (c *config) loaderFactory(ctx context.Context) session.LoaderFactory {
	return func(refs *reference.Set) (loader.Loader, error) {
		fallback, err := starlarkeval.NewLoader(refs)
		if err != nil {
			return nil, err
		}
		if !c.native {
			return fallback, nil
		}
		wasm, err := wasmload.NewLoader(ctx)
		if err != nil {
			return nil, err
		}
		c.wasm = wasm
		native := execload.NewLoader(nil)
		return loader.NewSniffer(fallback).
			Register(loader.FormatWasm, wasm).
			Register(loader.FormatELF, native).
			Register(loader.FormatMachO, native), nil
	}
}

// libraryNames returns the libraries to reference.  Without -library, the
// host libraries and every library under -library_dir are referenced.
func (c *config) libraryNames() ([]string, error) {
	if len(c.libraries) > 0 {
		return c.libraries, nil
	}
	if c.libraryDir == "" {
		return nil, nil
	}
	names, err := reference.NewFileProvider(c.libraryDir).Glob("**/*" + reference.DefaultExt)
	if err != nil {
		return nil, err
	}
	return append(reference.DefaultLibraries(), names...), nil
}

func (c *config) namespaceNames() []string {
	if len(c.namespaces) == 0 {
		return nil
	}
	return c.namespaces
}
