package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cggmp-signer/internal/curve"
)

func TestScalarArithmeticRoundTrips(t *testing.T) {
	a := curve.ScalarFromUint64(3)
	b := curve.ScalarFromUint64(5)

	sum := a.Add(b)
	assert.True(t, sum.Equal(curve.ScalarFromUint64(8)))

	prod := a.Mul(b)
	assert.True(t, prod.Equal(curve.ScalarFromUint64(15)))

	inv := a.Invert()
	assert.True(t, a.Mul(inv).Equal(curve.ScalarFromUint64(1)))

	neg := a.Negate()
	assert.True(t, a.Add(neg).IsZero())
}

func TestScalarBytesRoundTrip(t *testing.T) {
	s := curve.RandomScalar()
	decoded := curve.SetBytesModOrder(s.Bytes())
	assert.True(t, s.Equal(decoded))
}

func TestScalarBaseMulAndCompressedRoundTrip(t *testing.T) {
	s := curve.RandomScalar()
	p := curve.ScalarBaseMul(s)

	compressed := p.CompressedBytes()
	decoded, err := curve.ParseCompressed(compressed[:])
	require.NoError(t, err)
	assert.True(t, p.Equal(decoded))
}

func TestPointAddMatchesScalarAddition(t *testing.T) {
	a := curve.ScalarFromUint64(3)
	b := curve.ScalarFromUint64(4)

	lhs := curve.ScalarBaseMul(a.Add(b))
	rhs := curve.ScalarBaseMul(a).Add(curve.ScalarBaseMul(b))
	assert.True(t, lhs.Equal(rhs))
}

func TestXScalarIsStableAcrossEqualPoints(t *testing.T) {
	s := curve.RandomScalar()
	p1 := curve.ScalarBaseMul(s)
	p2 := curve.ScalarBaseMul(s)
	assert.True(t, p1.XScalar().Equal(p2.XScalar()))
}

func TestNormalizeLowSIsIdempotent(t *testing.T) {
	s := curve.RandomScalar()
	n := curve.NormalizeLowS(s)
	assert.True(t, curve.IsLowS(n))
	assert.True(t, curve.NormalizeLowS(n).Equal(n))
}
