//go:build !windows

package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultServerSocketPath returns the default path for the server Unix socket.
func DefaultServerSocketPath() string {
	return filepath.Join(os.TempDir(), "orderedmodel", "server.socket")
}

func listenIPC(ctx context.Context, srv *http.Server, socketPath string, logger *slog.Logger) (net.Listener, error) {
	if socketPath == "" {
		socketPath = DefaultServerSocketPath()
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0o750); err != nil {
		return nil, err
	}

	// Remove stale socket file if present (e.g., from a previous crash)
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove stale socket", "path", socketPath, "error", err)
	}

	lc := net.ListenConfig{}
	socket, err := lc.Listen(ctx, "unix", socketPath)
	if err != nil {
		return nil, err
	}

	logger.Info("Server listening on Unix socket", "path", socketPath)

	srv.RegisterOnShutdown(func() {
		if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove socket on shutdown", "path", socketPath, "error", err)
		}
	})

	return socket, nil
}
