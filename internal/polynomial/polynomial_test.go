package polynomial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/internal/polynomial"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

func allIndices(n int) []party.Index {
	out := make([]party.Index, n)
	for i := range out {
		out[i] = party.Index(i)
	}
	return out
}

func TestLagrange(t *testing.T) {
	N := 10
	allIDs := allIndices(N)
	coefsEven := polynomial.Lagrange(allIDs)
	coefsOdd := polynomial.Lagrange(allIDs[:N-1])

	one := curve.ScalarFromUint64(1)

	sumEven := curve.NewScalar()
	for _, c := range coefsEven {
		sumEven = sumEven.Add(c)
	}
	sumOdd := curve.NewScalar()
	for _, c := range coefsOdd {
		sumOdd = sumOdd.Add(c)
	}

	assert.True(t, sumEven.Equal(one))
	assert.True(t, sumOdd.Equal(one))
}

func TestPolynomialEvaluateAndVerifyShare(t *testing.T) {
	secret := curve.ScalarFromUint64(42)
	poly := polynomial.New(2, secret)
	commitments := poly.Commitments()

	ids := allIndices(5)
	for _, id := range ids {
		x := curve.NewScalar().SetNat(id.Nat())
		share := poly.Evaluate(x)
		assert.True(t, polynomial.VerifyShare(commitments, x, share))
	}
}

func TestLagrangeReconstructsSecret(t *testing.T) {
	secret := curve.ScalarFromUint64(1234567)
	threshold := 3
	poly := polynomial.New(threshold-1, secret)

	ids := allIndices(5)[:threshold]
	lambdas := polynomial.Lagrange(ids)

	reconstructed := curve.NewScalar()
	for _, id := range ids {
		x := curve.NewScalar().SetNat(id.Nat())
		share := poly.Evaluate(x)
		reconstructed = reconstructed.Add(lambdas[id].Mul(share))
	}

	assert.True(t, reconstructed.Equal(secret))
}
