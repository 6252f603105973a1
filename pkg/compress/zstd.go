package compress

import (
	"io"
	"sync"

	"connectrpc.com/connect"
	"github.com/klauspost/compress/zstd"
)

// Shared one-shot coders. EncodeAll and DecodeAll are safe for concurrent use.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil)
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

func zstdEncodeAll(src []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func zstdDecodeAll(src []byte) ([]byte, error) {
	dec, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(src, nil)
}

// zstdStream is a connect.Decompressor. connect closes a decompressor before
// returning it to its pool, so the decoder is rebuilt on the next Reset.
type zstdStream struct {
	dec *zstd.Decoder
}

func (s *zstdStream) Read(p []byte) (int, error) {
	if s.dec == nil {
		return 0, io.EOF
	}
	return s.dec.Read(p)
}

func (s *zstdStream) Reset(r io.Reader) error {
	if s.dec != nil {
		return s.dec.Reset(r)
	}
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return err
	}
	s.dec = dec
	return nil
}

func (s *zstdStream) Close() error {
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	return nil
}

// brokenCompressor reports a construction error on first use.
type brokenCompressor struct {
	err error
}

func (b brokenCompressor) Write([]byte) (int, error) { return 0, b.err }
func (b brokenCompressor) Reset(io.Writer)           {}
func (b brokenCompressor) Close() error              { return b.err }

// NewZstdCompressor and NewZstdDecompressor plug zstd into connect.
func NewZstdCompressor() connect.Compressor {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return brokenCompressor{err: err}
	}
	return enc
}

func NewZstdDecompressor() connect.Decompressor {
	return &zstdStream{}
}
