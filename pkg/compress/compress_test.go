package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompress(t *testing.T) {
	data := []byte("Hello, world! This is a test string to compress.")

	tests := []struct {
		name string
		algo CompressType
	}{
		{name: "None", algo: CompressTypeNone},
		{name: "Gzip", algo: CompressTypeGzip},
		{name: "Zstd", algo: CompressTypeZstd},
		{name: "Brotli", algo: CompressTypeBr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(data, tt.algo)
			require.NoError(t, err)
			assert.NotEmpty(t, compressed)

			decompressed, err := Decompress(compressed, tt.algo)
			require.NoError(t, err)
			assert.Equal(t, data, decompressed)
		})
	}
}

func TestDecompressWithContentEncodeStr(t *testing.T) {
	data := []byte("Hello, Content-Encoding!")

	for _, enc := range []string{"gzip", "zstd", "br"} {
		t.Run(enc, func(t *testing.T) {
			compressed, err := Compress(data, CompressLockupMap[enc])
			require.NoError(t, err)

			out, err := DecompressWithContentEncodeStr(compressed, enc)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}

	_, err := DecompressWithContentEncodeStr(data, "lz4")
	assert.Error(t, err)
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		want   CompressType
		name   string
	}{
		{header: "", want: CompressTypeNone, name: ""},
		{header: "gzip, deflate", want: CompressTypeGzip, name: "gzip"},
		{header: "gzip, deflate, br, zstd", want: CompressTypeBr, name: "br"},
		{header: "zstd;q=1.0, gzip;q=0.5", want: CompressTypeZstd, name: "zstd"},
		{header: "br;q=0, gzip", want: CompressTypeGzip, name: "gzip"},
		{header: "identity", want: CompressTypeNone, name: ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, name := Negotiate(tt.header)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestBrotliConnectCompressor(t *testing.T) {
	data := bytes.Repeat([]byte("rank "), 100)

	var buf bytes.Buffer
	c := NewBrotliCompressor()
	c.Reset(&buf)
	_, err := c.Write(data)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	d := NewBrotliDecompressor()
	require.NoError(t, d.Reset(&buf))
	out, err := io.ReadAll(d)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.NoError(t, d.Close())
}

func TestZstdOneShotShrinksRepeatedInput(t *testing.T) {
	data := bytes.Repeat([]byte("move-up move-down "), 64)

	compressed, err := Compress(data, CompressTypeZstd)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	_, err = Decompress([]byte("not zstd"), CompressTypeZstd)
	assert.Error(t, err)
}

func TestZstdConnectDecompressorPoolCycle(t *testing.T) {
	data := []byte(`{"model":"items","id":"01KJ2M8Q4ZT6W3R5Y7B9C1D2EF"}`)
	frame := func() *bytes.Buffer {
		var buf bytes.Buffer
		c := NewZstdCompressor()
		c.Reset(&buf)
		_, err := c.Write(data)
		require.NoError(t, err)
		require.NoError(t, c.Close())
		return &buf
	}

	d := NewZstdDecompressor()
	n, err := d.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	// connect closes a pooled decompressor and resets it before reuse
	for range 2 {
		require.NoError(t, d.Reset(frame()))
		out, err := io.ReadAll(d)
		require.NoError(t, err)
		assert.Equal(t, data, out)
		require.NoError(t, d.Close())
	}
}
