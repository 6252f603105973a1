//nolint:revive // exported
package mwcompress

import (
	"connectrpc.com/connect"

	"github.com/the-dev-tools/orderedmodel/pkg/compress"
)

func NewCompress() connect.Compressor {
	return compress.NewZstdCompressor()
}

func NewDecompress() connect.Decompressor {
	return compress.NewZstdDecompressor()
}

// HandlerOptions registers zstd and br next to connect's built-in gzip.
func HandlerOptions() []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithCompression("zstd", NewDecompress, NewCompress),
		connect.WithCompression("br", compress.NewBrotliDecompressor, compress.NewBrotliCompressor),
	}
}

// ClientOptions mirrors HandlerOptions for clients; zstd is sent by default.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{
		connect.WithAcceptCompression("zstd", NewDecompress, NewCompress),
		connect.WithAcceptCompression("br", compress.NewBrotliDecompressor, compress.NewBrotliCompressor),
		connect.WithSendCompression("zstd"),
	}
}
