// Package zkschnorr implements a Schnorr proof of knowledge of a
// discrete logarithm, used by aux-info to bind a party's freshly
// generated Paillier modulus to a session-specific identifier it
// actually knows the exponent for.
package zkschnorr

import (
	"crypto/rand"

	"golang.org/x/crypto/sha3"

	"github.com/luxfi/cggmp-signer/internal/curve"
)

// Proof is a non-interactive (Fiat-Shamir) proof of knowledge of x such
// that X = x*G.
type Proof struct {
	R *curve.Point
	S *curve.Scalar
}

// Prove proves knowledge of x for X = x*G, binding the proof to ctx
// (typically the execution id and party index) so proofs cannot be
// replayed across ceremonies.
func Prove(x *curve.Scalar, X *curve.Point, ctx []byte) (*Proof, error) {
	k := randomNonzeroScalar()
	R := curve.ScalarBaseMul(k)
	e := challenge(X, R, ctx)
	s := k.Add(e.Mul(x))
	return &Proof{R: R, S: s}, nil
}

// Verify checks s*G == R + e*X.
func (p *Proof) Verify(X *curve.Point, ctx []byte) bool {
	if p == nil || p.R == nil || p.S == nil || X == nil {
		return false
	}
	e := challenge(X, p.R, ctx)
	lhs := curve.ScalarBaseMul(p.S)
	rhs := p.R.Add(curve.ScalarMul(e, X))
	return lhs.Equal(rhs)
}

func challenge(X, R *curve.Point, ctx []byte) *curve.Scalar {
	h := sha3.New256()
	xb := X.CompressedBytes()
	rb := R.CompressedBytes()
	h.Write(xb[:])
	h.Write(rb[:])
	h.Write(ctx)
	return curve.SetBytesModOrder(h.Sum(nil))
}

func randomNonzeroScalar() *curve.Scalar {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			continue
		}
		s := curve.SetBytesModOrder(buf[:])
		if !s.IsZero() {
			return s
		}
	}
}
