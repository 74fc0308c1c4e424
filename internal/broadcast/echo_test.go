package broadcast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/internal/broadcast"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

func TestTrackerAcceptsMatchingEchoes(t *testing.T) {
	const n = 3
	self := party.Position(0)
	tr := broadcast.NewTracker(self, n)

	payload := []byte("hello from party 1")
	recipients, h, err := tr.StoreOriginal(party.Position(1), payload)
	require.NoError(t, err)
	assert.ElementsMatch(t, []party.Position{party.Position(2)}, recipients)
	assert.False(t, tr.Accepted(party.Position(1)))

	require.NoError(t, tr.StoreEcho(party.Position(1), party.Position(2), h))
	assert.True(t, tr.Accepted(party.Position(1)))
}

func TestTrackerDetectsEquivocation(t *testing.T) {
	const n = 3
	self := party.Position(0)
	tr := broadcast.NewTracker(self, n)

	_, _, err := tr.StoreOriginal(party.Position(1), []byte("value-a"))
	require.NoError(t, err)

	forged := broadcast.Sum([]byte("value-b"))
	err = tr.StoreEcho(party.Position(1), party.Position(2), forged)
	assert.Error(t, err)
}

func TestTrackerTwoPartyNeedsNoEcho(t *testing.T) {
	const n = 2
	self := party.Position(0)
	tr := broadcast.NewTracker(self, n)

	recipients, _, err := tr.StoreOriginal(party.Position(1), []byte("value"))
	require.NoError(t, err)
	assert.Empty(t, recipients)
	assert.True(t, tr.Accepted(party.Position(1)))
	assert.True(t, tr.ReadyAll())
}
