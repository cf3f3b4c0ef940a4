// compilerd serves the starlark compiler over gRPC for remote sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"github.com/stackb/repl-session/pkg/collections"
	"github.com/stackb/repl-session/pkg/logger"
	"github.com/stackb/repl-session/pkg/progress"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/remotecompile"
	"github.com/stackb/repl-session/pkg/starlarkeval"
)

type options struct {
	listen     string
	libraryDir string
	libraryURL string
	libraries  collections.StringSlice
	namespaces collections.StringSlice
	logLevel   string
}

func main() {
	log.SetPrefix("compilerd: ")
	log.SetFlags(0) // don't print timestamps

	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("compilerd", flag.ContinueOnError)
	fs.StringVar(&opts.listen, "listen", "localhost:0", "address to serve on")
	fs.StringVar(&opts.libraryDir, "library_dir", "", "directory holding <name>.star library sources")
	fs.StringVar(&opts.libraryURL, "library_url", "", "base url serving <name>.star library sources")
	fs.Var(&opts.libraries, "library", "library to reference (repeatable); defaults to the host libraries")
	fs.Var(&opts.namespaces, "namespace", "implicit namespace (repeatable)")
	fs.StringVar(&opts.logLevel, "log_level", "", "log level; overrides $REPL_LOG_LEVEL")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	zlog, closeLog, err := logger.Setup(opts.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	refs, err := bootstrap(ctx, opts)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", opts.listen)
	if err != nil {
		return err
	}
	return serve(ctx, lis, refs, zlog)
}

func bootstrap(ctx context.Context, opts *options) (*reference.Set, error) {
	var providers []reference.Provider
	if opts.libraryDir != "" {
		providers = append(providers, reference.NewFileProvider(opts.libraryDir))
	}
	if opts.libraryURL != "" {
		providers = append(providers, reference.NewHTTPProvider(opts.libraryURL))
	}
	provider := reference.Chain(append(providers, reference.Host)...)

	names := []string(opts.libraries)
	if len(names) == 0 {
		names = reference.DefaultLibraries()
	}
	namespaces := []string(opts.namespaces)
	if len(namespaces) == 0 {
		namespaces = reference.DefaultNamespaces
	}
	return reference.Bootstrap(ctx, provider, names, namespaces, progress.Discard)
}

// serve runs the compile service on lis until ctx is done.
func serve(ctx context.Context, lis net.Listener, refs *reference.Set, zlog zerolog.Logger) error {
	srv := grpc.NewServer()
	remotecompile.NewServer(starlarkeval.NewCompiler(), refs, zlog).Register(srv)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	zlog.Info().Str("addr", lis.Addr().String()).Str("digest", refs.Digest()).Msg("serving")
	return srv.Serve(lis)
}
