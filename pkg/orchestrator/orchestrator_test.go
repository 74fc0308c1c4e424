package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/pkg/orchestrator"
	"github.com/luxfi/cggmp-signer/pkg/primegen"
	"github.com/luxfi/cggmp-signer/pkg/wire"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
)

const testBits = 512

func TestRunFreshCeremony(t *testing.T) {
	out, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 3})
	require.NoError(t, err)
	require.Len(t, out.Shares, 3)
	assert.Len(t, out.PublicKey, 66) // 33 bytes, hex

	for _, s := range out.Shares {
		assert.NotEmpty(t, s.CoreShare)
		assert.NotEmpty(t, s.AuxInfo)
	}
}

func TestRunWithPregeneratedPrimes(t *testing.T) {
	pairs, err := primegen.GenerateBatch(context.Background(), 2, testBits)
	require.NoError(t, err)

	out, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 2, Threshold: 2, Primes: pairs})
	require.NoError(t, err)
	require.Len(t, out.Shares, 2)
}

func TestGenAuxThenDkgWithAux(t *testing.T) {
	ctx := context.Background()
	aux, err := orchestrator.GenAux(ctx, orchestrator.Options{N: 2})
	require.NoError(t, err)
	require.Len(t, aux.AuxInfos, 2)

	decoded := make([]*auxinfo.Output, 2)
	for i, blob := range aux.AuxInfos {
		var o auxinfo.Output
		require.NoError(t, wire.DecodeBlob(blob, &o))
		decoded[i] = &o
	}

	out, err := orchestrator.Run(ctx, orchestrator.Options{N: 2, Threshold: 2, AuxInfo: decoded})
	require.NoError(t, err)
	require.Len(t, out.Shares, 2)
	for i := range out.Shares {
		assert.Equal(t, aux.AuxInfos[i], out.Shares[i].AuxInfo)
	}
}

func TestRunRejectsTooFewParties(t *testing.T) {
	_, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 1})
	assert.Error(t, err)
}

func TestRunRejectsOutOfRangeThreshold(t *testing.T) {
	_, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 1})
	assert.ErrorContains(t, err, "threshold")

	_, err = orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 4})
	assert.ErrorContains(t, err, "threshold")
}
