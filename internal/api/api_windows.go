//go:build windows

package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/Microsoft/go-winio"
)

// DefaultServerSocketPath returns the named pipe used in uds mode on Windows.
func DefaultServerSocketPath() string {
	return `\\.\pipe\orderedmodel-server`
}

func listenIPC(_ context.Context, _ *http.Server, socketPath string, logger *slog.Logger) (net.Listener, error) {
	if socketPath == "" {
		socketPath = DefaultServerSocketPath()
	}

	pipe, err := winio.ListenPipe(socketPath, &winio.PipeConfig{
		MessageMode:      false,
		InputBufferSize:  64 * 1024,
		OutputBufferSize: 64 * 1024,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Server listening on named pipe", "path", socketPath)
	return pipe, nil
}
