package commitment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/internal/commitment"
)

func TestCommitVerifyRoundTrip(t *testing.T) {
	c, err := commitment.Commit([]byte("hello"), []byte("world"))
	require.NoError(t, err)
	assert.NoError(t, commitment.Verify(c.C, c.Salt, []byte("hello"), []byte("world")))
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	c, err := commitment.Commit([]byte("hello"))
	require.NoError(t, err)
	assert.Error(t, commitment.Verify(c.C, c.Salt, []byte("goodbye")))
}

func TestVerifyRejectsWrongSalt(t *testing.T) {
	c1, err := commitment.Commit([]byte("a"))
	require.NoError(t, err)
	c2, err := commitment.Commit([]byte("a"))
	require.NoError(t, err)
	assert.Error(t, commitment.Verify(c1.C, c2.Salt, []byte("a")))
}

func TestTwoCommitmentsOfSameDataHaveDifferentSalts(t *testing.T) {
	c1, err := commitment.Commit([]byte("same"))
	require.NoError(t, err)
	c2, err := commitment.Commit([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, c1.Salt, c2.Salt)
	assert.NotEqual(t, c1.C, c2.C)
}
