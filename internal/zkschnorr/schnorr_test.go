package zkschnorr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/zkschnorr"
)

func TestProveVerify(t *testing.T) {
	x := curve.ScalarFromUint64(777)
	X := curve.ScalarBaseMul(x)
	ctx := []byte("ceremony-1")

	proof, err := zkschnorr.Prove(x, X, ctx)
	require.NoError(t, err)
	assert.True(t, proof.Verify(X, ctx))
}

func TestVerifyRejectsWrongContext(t *testing.T) {
	x := curve.ScalarFromUint64(13)
	X := curve.ScalarBaseMul(x)

	proof, err := zkschnorr.Prove(x, X, []byte("ctx-a"))
	require.NoError(t, err)
	assert.False(t, proof.Verify(X, []byte("ctx-b")))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	x := curve.ScalarFromUint64(13)
	X := curve.ScalarBaseMul(x)
	other := curve.ScalarBaseMul(curve.ScalarFromUint64(14))

	proof, err := zkschnorr.Prove(x, X, []byte("ctx"))
	require.NoError(t, err)
	assert.False(t, proof.Verify(other, []byte("ctx")))
}
