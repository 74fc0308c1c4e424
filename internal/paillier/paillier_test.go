package paillier_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/internal/paillier"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sk, err := paillier.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)

	m := big.NewInt(424242)
	c, _, err := sk.Encrypt(m)
	require.NoError(t, err)

	got, err := sk.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, 0, m.Cmp(got))
}

func TestHomomorphicAdd(t *testing.T) {
	sk, err := paillier.GenerateKey(rand.Reader, 512)
	require.NoError(t, err)

	m1, m2 := big.NewInt(11), big.NewInt(31)
	c1, _, err := sk.Encrypt(m1)
	require.NoError(t, err)
	c2, _, err := sk.Encrypt(m2)
	require.NoError(t, err)

	sum := sk.AddCiphertexts(c1, c2)
	got, err := sk.Decrypt(sum)
	require.NoError(t, err)

	want := new(big.Int).Add(m1, m2)
	require.Equal(t, 0, want.Cmp(got))
}
