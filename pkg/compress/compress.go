//nolint:revive // exported
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"github.com/andybalholm/brotli"
)

type CompressType = int8

const (
	CompressTypeNone CompressType = 0
	CompressTypeGzip CompressType = 1
	CompressTypeZstd CompressType = 2
	CompressTypeBr   CompressType = 3
)

var CompressLockupMap map[string]CompressType = map[string]CompressType{
	"":         CompressTypeNone,
	"identity": CompressTypeNone,
	"gzip":     CompressTypeGzip,
	"zstd":     CompressTypeZstd,
	"br":       CompressTypeBr,
}

var encodingNames = map[CompressType]string{
	CompressTypeGzip: "gzip",
	CompressTypeZstd: "zstd",
	CompressTypeBr:   "br",
}

var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(io.Discard)
		},
	}
	brotliWriterPool = sync.Pool{
		New: func() any {
			return brotli.NewWriter(io.Discard)
		},
	}
)

func Compress(data []byte, compressType CompressType) ([]byte, error) {
	var buf bytes.Buffer
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(z)

		z.Reset(&buf)
		if _, err := z.Write(data); err != nil {
			return nil, err
		}
		if err := z.Close(); err != nil {
			return nil, err
		}
	case CompressTypeZstd:
		out, err := zstdEncodeAll(data)
		if err != nil {
			return nil, err
		}
		return out, nil
	case CompressTypeBr:
		w := brotliWriterPool.Get().(*brotli.Writer)
		defer brotliWriterPool.Put(w)

		w.Reset(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
	return buf.Bytes(), nil
}

func Decompress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeNone:
		return data, nil
	case CompressTypeGzip:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case CompressTypeZstd:
		return zstdDecodeAll(data)
	case CompressTypeBr:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
}

func DecompressWithContentEncodeStr(data []byte, contentEncoding string) ([]byte, error) {
	compressType, ok := CompressLockupMap[contentEncoding]
	if !ok {
		return nil, fmt.Errorf("%s encoding not supported", contentEncoding)
	}

	return Decompress(data, compressType)
}

// Negotiate picks the best supported encoding from an Accept-Encoding
// header. Preference is br, zstd, gzip; q=0 entries are skipped.
func Negotiate(acceptEncoding string) (CompressType, string) {
	accepted := make(map[string]bool)
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if q := strings.ReplaceAll(params, " ", ""); q == "q=0" || q == "q=0.0" {
			continue
		}
		accepted[name] = true
	}
	for _, t := range []CompressType{CompressTypeBr, CompressTypeZstd, CompressTypeGzip} {
		if accepted[encodingNames[t]] {
			return t, encodingNames[t]
		}
	}
	return CompressTypeNone, ""
}

type brotliDecompressor struct {
	*brotli.Reader
}

func (brotliDecompressor) Close() error { return nil }

// NewBrotliCompressor and NewBrotliDecompressor plug brotli into connect.
func NewBrotliCompressor() connect.Compressor {
	return brotli.NewWriter(nil)
}

func NewBrotliDecompressor() connect.Decompressor {
	return brotliDecompressor{Reader: brotli.NewReader(nil)}
}
