// Package server wires the play runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/openlms/ispring-play/internal/platform/config"
	platformerrors "github.com/openlms/ispring-play/internal/platform/errors"
	"github.com/openlms/ispring-play/internal/platform/requestctx"
	playsqlite "github.com/openlms/ispring-play/internal/services/play/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type serverEnv struct {
	DBPath string `env:"ISPRING_PLAY_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "play.db")
	}
	return cfg
}

// Server hosts the play gRPC endpoint and storage lifecycle. Playback
// endpoints are registered by the caller through Register before Serve.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *playsqlite.Store
	service    *Service
}

// New creates a configured play server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured play server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	env := loadServerEnv()
	store, err := openPlayStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	service := NewService(Stores{
		Session:   store,
		Query:     store,
		Content:   store,
		Module:    store,
		Telemetry: store,
	})

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(requestContextInterceptor, errorTranslationInterceptor),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		service:    service,
	}, nil
}

// requestContextInterceptor copies caller metadata into context: the
// accept-language preference for error translation and the authenticated
// user id forwarded by the hosting LMS.
func requestContextInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("accept-language"); len(values) > 0 {
			ctx = requestctx.WithLocale(ctx, values[0])
		}
		if values := md.Get("x-user-id"); len(values) > 0 {
			ctx = requestctx.WithUserID(ctx, values[0])
		}
	}
	return handler(ctx, req)
}

// errorTranslationInterceptor maps typed domain errors returned by
// registered handlers to gRPC statuses with localized detail.
func errorTranslationInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	if _, ok := status.FromError(err); ok {
		return resp, err
	}
	locale := requestctx.LocaleFromContext(ctx)
	if locale == "" {
		locale = platformerrors.DefaultLocale
	}
	return resp, platformerrors.HandleError(err, locale)
}

func openPlayStore(dbPath string) (*playsqlite.Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}
	store, err := playsqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open play store at %s: %w", dbPath, err)
	}
	return store, nil
}

// Service returns the application service backed by the server's store.
func (s *Server) Service() *Service {
	if s == nil {
		return nil
	}
	return s.service
}

// Register exposes the underlying gRPC server so callers can attach
// playback endpoint implementations before Serve.
func (s *Server) Register(register func(*grpc.Server)) {
	if s == nil || register == nil {
		return
	}
	register(s.grpcServer)
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a play server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("play server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases play server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close play store: %v", err)
		}
	}
}
