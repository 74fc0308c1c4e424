package primegen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/pkg/primegen"
)

const testBits = 512 // small for test speed; production uses paillier.KeyBits

func TestGenerateProducesDistinctPrimes(t *testing.T) {
	pair, err := primegen.Generate(testBits)
	require.NoError(t, err)
	assert.NotEqual(t, 0, pair.P.Cmp(pair.Q))
	assert.True(t, pair.P.ProbablyPrime(20))
	assert.True(t, pair.Q.ProbablyPrime(20))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pair, err := primegen.Generate(testBits)
	require.NoError(t, err)

	encoded, err := primegen.Encode(pair)
	require.NoError(t, err)

	decoded, err := primegen.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, pair.P.Cmp(decoded.P))
	assert.Equal(t, 0, pair.Q.Cmp(decoded.Q))
}

func TestPrimePairDerivesPaillierKey(t *testing.T) {
	pair, err := primegen.Generate(testBits)
	require.NoError(t, err)
	key, err := pair.Key()
	require.NoError(t, err)
	assert.NotNil(t, key.N)
}

func TestGenerateBatchProducesNIndependentPairs(t *testing.T) {
	pairs, err := primegen.GenerateBatch(context.Background(), 3, testBits)
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	for i, p := range pairs {
		require.NotNil(t, p, "pair %d", i)
		assert.True(t, p.P.ProbablyPrime(20))
	}
}
