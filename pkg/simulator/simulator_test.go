package simulator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
	"github.com/luxfi/cggmp-signer/pkg/simulator"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
)

func TestRunDrivesAuxInfoToCompletion(t *testing.T) {
	const n = 3
	eid := []byte("test-execution-id")

	build := func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		first, out, err := auxinfo.Start(self, n, eid)
		if err != nil {
			return nil, nil, nil, err
		}
		return first, out, &driver.Auxiliary{ExecutionID: eid}, nil
	}

	outputs, err := simulator.Run(n, build)
	require.NoError(t, err)
	require.Len(t, outputs, n)

	for i, o := range outputs {
		out, ok := o.(*auxinfo.Output)
		require.True(t, ok, "party %d output has wrong type", i)
		assert.Len(t, out.Parties, n)
		assert.NotNil(t, out.Private)
	}
}

func TestRunRejectsTooFewParties(t *testing.T) {
	build := func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		return nil, nil, nil, nil
	}
	_, err := simulator.Run(1, build)
	assert.Error(t, err)
}

func TestRunSurfacesBuildError(t *testing.T) {
	build := func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		if self == 1 {
			return nil, nil, nil, assert.AnError
		}
		first, out, err := auxinfo.Start(self, 3, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		return first, out, &driver.Auxiliary{}, nil
	}
	_, err := simulator.Run(3, build)
	assert.Error(t, err)
}
