package remotecompile

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/stackb/repl-session/pkg/bazel"
	"github.com/stackb/repl-session/pkg/collections"
	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/procutil"
)

// REPL_COMPILER_DIAL_TIMEOUT overrides the default backend dial timeout.
const REPL_COMPILER_DIAL_TIMEOUT = procutil.EnvVar("REPL_COMPILER_DIAL_TIMEOUT")

const defaultDialTimeout = 3 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client) *Client

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) *Client {
		c.logger = logger
		return c
	}
}

// WithConn uses an established connection instead of dialing the backend.
func WithConn(conn grpc.ClientConnInterface) ClientOption {
	return func(c *Client) *Client {
		c.conn = conn
		return c
	}
}

// Client implements compile.Compiler by talking to a compiler backend over
// gRPC, starting the backend process when no url is configured.
type Client struct {
	logger zerolog.Logger

	backendUrl         string
	backendBinPath     string
	backendHost        string
	backendPort        int
	backendDialTimeout time.Duration
	backendArgs        []string

	conn   grpc.ClientConnInterface
	closer func() error

	// the process
	cmd *exec.Cmd
}

// NewClient returns a new client.  Without options it must be configured
// through RegisterFlags and CheckFlags.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:             zerolog.Nop(),
		backendHost:        "localhost",
		backendDialTimeout: procutil.LookupDurationEnv(REPL_COMPILER_DIAL_TIMEOUT, defaultDialTimeout),
	}
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

// RegisterFlags registers the client flags.
func (c *Client) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.backendUrl, "compiler_url", "", "address (host:port) of a running compiler backend")
	fs.StringVar(&c.backendBinPath, "compiler_bin_path", "", "filesystem path to the compiler backend binary, started when -compiler_url is empty")
	fs.StringVar(&c.backendHost, "compiler_backend_host", "localhost", "bind host for a started compiler backend")
	fs.DurationVar(&c.backendDialTimeout, "compiler_backend_dial_timeout", c.backendDialTimeout, "compiler backend dial timeout; defaults to $REPL_COMPILER_DIAL_TIMEOUT or 3s")
}

// Enabled reports whether the flags name a backend.
func (c *Client) Enabled() bool {
	return c.conn != nil || c.backendUrl != "" || c.backendBinPath != ""
}

// CheckFlags starts the backend if needed and connects the client.  Args
// are passed to a started backend after its listen flag.
func (c *Client) CheckFlags(fs *flag.FlagSet, args ...string) error {
	if c.conn != nil {
		return nil
	}
	c.backendArgs = args

	if c.backendUrl == "" {
		if c.backendBinPath == "" {
			return errors.New("one of -compiler_url or -compiler_bin_path is required")
		}
		port, err := collections.GetFreePort()
		if err != nil {
			return fmt.Errorf("getting compiler backend port: %w", err)
		}
		c.backendPort = port
		c.backendUrl = net.JoinHostPort(c.backendHost, fmt.Sprintf("%d", port))
		if err := c.start(); err != nil {
			return err
		}
		if !collections.WaitForConnectionAvailable(c.backendHost, c.backendPort, c.backendDialTimeout, false) {
			return fmt.Errorf("failed to connect to compiler backend %s in %v", c.backendUrl, c.backendDialTimeout)
		}
	}

	return c.startGrpcClient()
}

func (c *Client) start() error {
	t1 := time.Now()

	binPath := os.ExpandEnv(c.backendBinPath)
	if _, err := os.Stat(binPath); err != nil {
		// not a filesystem path, try it as a runfile
		if resolved, err := bazel.Runfile(binPath); err == nil {
			binPath = resolved
		}
	}

	args := append([]string{fmt.Sprintf("-listen=%s", c.backendUrl)}, c.backendArgs...)
	cmd := exec.Command(binPath, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	c.cmd = cmd

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting process %s: %w", c.backendBinPath, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			if !strings.Contains(err.Error(), "signal: killed") {
				c.logger.Warn().Err(err).Msg("compiler backend exited")
			}
		}
	}()

	c.logger.Debug().Dur("elapsed", time.Since(t1).Round(time.Millisecond)).Str("url", c.backendUrl).Msg("compiler backend started")
	return nil
}

// Dial connects the client to a running backend at url (host:port).
func (c *Client) Dial(url string) error {
	c.backendUrl = url
	return c.startGrpcClient()
}

func (c *Client) startGrpcClient() error {
	conn, err := grpc.NewClient(c.backendUrl, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dialing compiler backend %s: %w", c.backendUrl, err)
	}
	c.conn = conn
	c.closer = conn.Close
	return nil
}

// Stop closes the connection and kills a started backend.
func (c *Client) Stop() error {
	if c.cmd != nil && c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil {
			return err
		}
		c.cmd = nil
	}
	if c.closer != nil {
		closer := c.closer
		c.closer = nil
		return closer()
	}
	return nil
}

// Compile implements compile.Compiler.
func (c *Client) Compile(ctx context.Context, req *compile.Request) (*compile.Response, error) {
	if c.conn == nil {
		return nil, errors.New("compiler backend not connected")
	}

	var parent string
	if req.Parent != nil {
		parent = req.Parent.ID
	}
	out := new(structpb.Struct)
	in := encodeRequest(&compileRequest{
		Source:     req.Source,
		References: req.References.Digest(),
		Parent:     parent,
	})
	if err := c.conn.Invoke(ctx, compileMethodName, in, out); err != nil {
		return nil, fmt.Errorf("compiler backend error: %w", err)
	}

	return decodeResponse(out, req.Parent, req.Source)
}

// Emit implements compile.Compiler.
func (c *Client) Emit(ctx context.Context, unit *compile.Unit) ([]byte, error) {
	id, ok := unit.Artifact.(remoteUnit)
	if !ok {
		return nil, fmt.Errorf("%w: unit %s was not compiled by the compiler backend", compile.ErrEmit, unit.EntryPoint.Type)
	}
	if c.conn == nil {
		return nil, fmt.Errorf("%w: compiler backend not connected", compile.ErrEmit)
	}
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, emitMethodName, wrapperspb.String(string(id)), out); err != nil {
		return nil, fmt.Errorf("%w: %v", compile.ErrEmit, err)
	}
	return out.GetValue(), nil
}
