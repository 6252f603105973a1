package mwcodec

import (
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveRequest struct {
	Model     string `json:"model"`
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Position  int    `json:"position"`
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := NewJSONCodec()
	assert.Equal(t, "json", codec.Name())

	in := moveRequest{Model: "items", ID: "01KJ2M8Q4ZT6W3R5Y7B9C1D2EF", Direction: "up"}
	data, err := codec.Marshal(&in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"position":0`)

	var out moveRequest
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestJSONCodecEmptyBody(t *testing.T) {
	var out moveRequest
	require.NoError(t, NewJSONCodec().Unmarshal(nil, &out))
	assert.Equal(t, moveRequest{}, out)
}

func TestJSONCodecUnknownField(t *testing.T) {
	var out moveRequest
	err := NewJSONCodec().Unmarshal([]byte(`{"model":"items","directon":"up"}`), &out)
	require.Error(t, err)

	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, connect.CodeInvalidArgument, cerr.Code())
}
