package remotecompile

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/reference"
)

const debugServer = false

// Server exposes a compile.Compiler over gRPC.  Units it produced are kept
// by ID so later requests can name them as parents and emit them.
type Server struct {
	compiler compile.Compiler
	refs     *reference.Set
	logger   zerolog.Logger

	mu    sync.Mutex
	units map[string]*compile.Unit
}

// NewServer returns a server compiling against refs.
func NewServer(compiler compile.Compiler, refs *reference.Set, logger zerolog.Logger) *Server {
	return &Server{
		compiler: compiler,
		refs:     refs,
		logger:   logger,
		units:    make(map[string]*compile.Unit),
	}
}

// Register registers the server with a grpc server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	RegisterCompilerServer(registrar, s)
}

// Compile implements CompilerServer.
func (s *Server) Compile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := decodeRequest(in)

	if want := s.refs.Digest(); req.References != want {
		return nil, status.Errorf(codes.FailedPrecondition, "reference set digest mismatch: got %q, want %q", req.References, want)
	}

	var parent *compile.Unit
	if req.Parent != "" {
		var ok bool
		if parent, ok = s.unit(req.Parent); !ok {
			return nil, status.Errorf(codes.NotFound, "parent unit %q not found", req.Parent)
		}
	}

	resp, err := s.compiler.Compile(ctx, &compile.Request{
		Source:     req.Source,
		References: s.refs,
		Parent:     parent,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "compile: %v", err)
	}

	if resp.Unit != nil {
		s.mu.Lock()
		s.units[resp.Unit.ID] = resp.Unit
		s.mu.Unlock()
	}
	if debugServer {
		s.logger.Debug().Int("diagnostics", len(resp.Diagnostics)).Bool("unit", resp.Unit != nil).Msg("compiled")
	}

	return encodeResponse(resp), nil
}

// Emit implements CompilerServer.
func (s *Server) Emit(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	unit, ok := s.unit(in.GetValue())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unit %q not found", in.GetValue())
	}
	data, err := s.compiler.Emit(ctx, unit)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	return wrapperspb.Bytes(data), nil
}

func (s *Server) unit(id string) (*compile.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unit, ok := s.units[id]
	return unit, ok
}
