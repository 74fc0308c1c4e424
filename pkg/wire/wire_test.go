package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/pkg/wire"
)

func TestEncodeDecodeBlobRoundTrip(t *testing.T) {
	type payload struct {
		Foo string `json:"foo"`
		Bar int    `json:"bar"`
	}
	in := payload{Foo: "hello", Bar: 42}
	encoded, err := wire.EncodeBlob(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, wire.DecodeBlob(encoded, &out))
	assert.Equal(t, in, out)
}

func TestDecodeHexFixedRejectsWrongLength(t *testing.T) {
	_, err := wire.DecodeHexFixed("aabb", 32)
	assert.Error(t, err)
}

func TestDecodeHexFixedAccepts32Bytes(t *testing.T) {
	hex32 := ""
	for i := 0; i < 64; i++ {
		hex32 += "a"
	}
	b, err := wire.DecodeHexFixed(hex32, 32)
	require.NoError(t, err)
	assert.Len(t, b, 32)
}
