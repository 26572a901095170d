package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	gatev1 "github.com/ppiankov/envguard/api/gate/v1"
	"github.com/ppiankov/envguard/internal/config"
	"github.com/ppiankov/envguard/internal/hook"
	"github.com/ppiankov/envguard/internal/intercept"
)

// Config holds gRPC server configuration.
type Config struct {
	Port       int
	ConfigPath string
	Logger     *slog.Logger
}

// Server implements the envguard.v1.Gate service. The active Interceptor is
// replaced whole on reload, so every evaluation sees one rule set.
type Server struct {
	current atomic.Pointer[intercept.Interceptor]
	cfg     Config
	source  string
	logger  *slog.Logger

	grpcServer *grpc.Server
}

// New creates a gRPC server with the configuration loaded from cfg.ConfigPath.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		source:     conf.Source,
		logger:     logger,
		grpcServer: grpc.NewServer(),
	}
	s.current.Store(conf.Interceptor(logger))

	gatev1.RegisterGateServer(s.grpcServer, s)
	return s, nil
}

// Source returns the config file in use, empty when running on defaults.
func (s *Server) Source() string {
	return s.source
}

// Interceptor returns the active Interceptor.
func (s *Server) Interceptor() *intercept.Interceptor {
	return s.current.Load()
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.ServeOn(lis)
}

// ServeOn starts the gRPC server on the given listener.
func (s *Server) ServeOn(lis net.Listener) error {
	s.logger.Info("decision service listening", "addr", lis.Addr().String(), "config", s.source)
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// Evaluate implements the Evaluate RPC.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tr := hook.ResolveSession(gatev1.StructToRequest(req), nil)
	d := s.current.Load().Evaluate(tr)

	var msg string
	if d.Blocked() {
		msg = hook.BlockMessage(d.Reason)
	}
	return gatev1.DecisionToStruct(d, msg), nil
}

// Reload rebuilds the Interceptor from the config file and swaps it in.
// On error the previous Interceptor stays active.
func (s *Server) Reload() error {
	conf, err := config.Load(s.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	s.current.Store(conf.Interceptor(s.logger))
	return nil
}
