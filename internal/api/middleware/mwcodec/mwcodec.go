// Package mwcodec provides custom codecs for Connect RPC.
package mwcodec

import (
	"bytes"
	"fmt"

	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// jsonCodec marshals plain Go structs; messages are not protobuf types.
type jsonCodec struct {
	name string
}

var _ connect.Codec = (*jsonCodec)(nil)

// Name returns the codec name.
func (c *jsonCodec) Name() string {
	return c.name
}

func (c *jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal rejects unknown fields so a misspelled key fails loudly.
func (c *jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("decode %T: %w", msg, err))
	}
	return nil
}

// NewJSONCodec creates the "json" codec used by every service.
func NewJSONCodec() connect.Codec {
	return &jsonCodec{name: "json"}
}

// WithJSONCodec returns a connect.Option that uses the custom JSON codec.
func WithJSONCodec() connect.Option {
	return connect.WithCodec(NewJSONCodec())
}
