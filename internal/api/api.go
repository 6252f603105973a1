//nolint:revive // exported
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Service struct {
	Handler http.Handler
	Path    string
}

// Server mode constants
const (
	ServerModeUDS = "uds"
	ServerModeTCP = "tcp"
)

const DefaultShutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Mode            string
	Port            string
	SocketPath      string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return len(origins) == 0 || slices.Contains(origins, origin)
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			"Grpc-Accept-Encoding",
			"Grpc-Encoding",
			"Grpc-Message",
			"Grpc-Status",
			"Grpc-Status-Details-Bin",
		},
		AllowCredentials: len(origins) > 0,
		MaxAge:           int(time.Hour / time.Second),
	})
}

// NewMux registers every service path on a fresh mux.
func NewMux(services []Service, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	for _, service := range services {
		logger.Info("Registering service", "path", service.Path)
		mux.Handle(service.Path, service.Handler)
	}
	return mux
}

// NewHandler wraps mux with CORS and h2c.
func NewHandler(mux http.Handler, origins []string) http.Handler {
	return h2c.NewHandler(newCORS(origins).Handler(mux), &http2.Server{
		IdleTimeout:          0,
		MaxConcurrentStreams: 100000,
		MaxHandlers:          0,
	})
}

func newH2CServer(mux http.Handler, origins []string) *http.Server {
	return &http.Server{
		// NOTE: ConnectRPC requires an address even for Unix sockets.
		Addr:              "orderedmodel:0",
		ReadHeaderTimeout: 10 * time.Second,
		Handler:           NewHandler(mux, origins),
	}
}

// ListenServices serves services until ctx is cancelled, then shuts the
// server down within cfg.ShutdownTimeout.
func ListenServices(ctx context.Context, services []Service, cfg ServerConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	srv := newH2CServer(NewMux(services, logger), cfg.CORSOrigins)

	var (
		listener net.Listener
		err      error
	)
	switch cfg.Mode {
	case ServerModeTCP, "":
		listener, err = listenTCP(ctx, srv, cfg.Port, logger)
	case ServerModeUDS:
		listener, err = listenIPC(ctx, srv, cfg.SocketPath, logger)
	default:
		return fmt.Errorf("unknown server mode %q", cfg.Mode)
	}
	if err != nil {
		return err
	}

	return Serve(ctx, srv, listener, cfg.ShutdownTimeout, logger)
}

// Serve runs srv on listener and performs a graceful shutdown once ctx is done.
func Serve(ctx context.Context, srv *http.Server, listener net.Listener, timeout time.Duration, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func listenTCP(ctx context.Context, srv *http.Server, port string, logger *slog.Logger) (net.Listener, error) {
	srv.Addr = ":" + port
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return nil, err
	}
	logger.Info("Server listening on TCP", "port", port)
	return listener, nil
}
