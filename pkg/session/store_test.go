package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/session"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
)

func TestCreateAndDestroyIsIdempotent(t *testing.T) {
	store := session.New()
	first, out, err := auxinfo.Start(party.Position(0), 2, []byte("eid"))
	require.NoError(t, err)

	id, initial, complete, _, err := store.Create(party.Position(0), 2, first, out, &driver.Auxiliary{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, initial)
	assert.False(t, complete)

	assert.True(t, store.Destroy(id))
	assert.False(t, store.Destroy(id))
}

func TestProcessRoundRejectsUnknownSession(t *testing.T) {
	store := session.New()
	_, _, _, err := store.ProcessRound("does-not-exist", nil)
	assert.Error(t, err)
}

func TestTwoPartyAuxInfoSessionsCompleteViaStore(t *testing.T) {
	store := session.New()
	eid := []byte("eid")

	firstA, outA, err := auxinfo.Start(party.Position(0), 2, eid)
	require.NoError(t, err)
	idA, pendingA, completeA, _, err := store.Create(party.Position(0), 2, firstA, outA, &driver.Auxiliary{})
	require.NoError(t, err)
	require.False(t, completeA)

	firstB, outB, err := auxinfo.Start(party.Position(1), 2, eid)
	require.NoError(t, err)
	idB, pendingB, completeB, _, err := store.Create(party.Position(1), 2, firstB, outB, &driver.Auxiliary{})
	require.NoError(t, err)
	require.False(t, completeB)

	toMessages := func(msgs []session.Message) []session.Message { return msgs }

	inboxA := toMessages(pendingB)
	inboxB := toMessages(pendingA)

	var doneA, doneB bool
	for i := 0; i < 10 && !(doneA && doneB); i++ {
		if !doneA && len(inboxA) > 0 {
			out, complete, _, err := store.ProcessRound(idA, inboxA)
			require.NoError(t, err)
			inboxA = nil
			inboxB = append(inboxB, out...)
			doneA = complete
		}
		if !doneB && len(inboxB) > 0 {
			out, complete, _, err := store.ProcessRound(idB, inboxB)
			require.NoError(t, err)
			inboxB = nil
			inboxA = append(inboxA, out...)
			doneB = complete
		}
	}
	assert.True(t, doneA)
	assert.True(t, doneB)
}
