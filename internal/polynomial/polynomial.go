// Package polynomial implements the Feldman-VSS polynomial arithmetic
// shared by keygen (secret sharing) and signing (Lagrange
// recombination of partial signatures).
package polynomial

import (
	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/party"
)

// Polynomial is a secret-sharing polynomial over Z_n, stored low-degree
// coefficient first; Coefficients[0] is the shared secret.
type Polynomial struct {
	Coefficients []*curve.Scalar
}

// New samples a uniformly random degree-`degree` polynomial whose
// constant term is `secret` (or a fresh random scalar if secret is nil).
func New(degree int, secret *curve.Scalar) *Polynomial {
	coeffs := make([]*curve.Scalar, degree+1)
	if secret != nil {
		coeffs[0] = secret
	} else {
		coeffs[0] = curve.RandomScalar()
	}
	for i := 1; i <= degree; i++ {
		coeffs[i] = curve.RandomScalar()
	}
	return &Polynomial{Coefficients: coeffs}
}

// Evaluate computes f(x) via Horner's method.
func (p *Polynomial) Evaluate(x *curve.Scalar) *curve.Scalar {
	acc := curve.NewScalar()
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(p.Coefficients[i])
	}
	return acc
}

// Constant returns the polynomial's constant term (the shared secret).
func (p *Polynomial) Constant() *curve.Scalar {
	return p.Coefficients[0]
}

// Commitments returns c_i = Coefficients[i]*G for every coefficient, the
// Feldman commitment broadcast alongside the Shamir shares so every
// recipient can verify f(x) without learning the other shares.
func (p *Polynomial) Commitments() []*curve.Point {
	out := make([]*curve.Point, len(p.Coefficients))
	for i, c := range p.Coefficients {
		out[i] = curve.ScalarBaseMul(c)
	}
	return out
}

// VerifyShare checks that share = f(x) against the public coefficient
// commitments, using the homomorphism sum(c_i * x^i) = f(x)*G.
func VerifyShare(commitments []*curve.Point, x *curve.Scalar, share *curve.Scalar) bool {
	acc := curve.NewPoint()
	xPow := curve.ScalarFromUint64(1) // x^0 = 1
	for _, c := range commitments {
		acc = acc.Add(curve.ScalarMul(xPow, c))
		xPow = xPow.Mul(x)
	}
	return acc.Equal(curve.ScalarBaseMul(share))
}

// Lagrange computes, for every id in ids, the coefficient lambda_id such
// that sum(lambda_id * f(x_id)) = f(0) for any polynomial of degree <
// len(ids). x-coordinates are party.Index.Nat() (index+1), matching the
// teacher's own convention of never evaluating a share at x=0.
func Lagrange(ids []party.Index) map[party.Index]*curve.Scalar {
	xs := make(map[party.Index]*curve.Scalar, len(ids))
	for _, id := range ids {
		xs[id] = curve.NewScalar().SetNat(id.Nat())
	}
	out := make(map[party.Index]*curve.Scalar, len(ids))
	for _, i := range ids {
		xi := xs[i]
		num := curve.ScalarFromUint64(1)
		den := curve.ScalarFromUint64(1)
		for _, j := range ids {
			if j == i {
				continue
			}
			xj := xs[j]
			num = num.Mul(xj.Negate())
			den = den.Mul(xi.Add(xj.Negate()))
		}
		out[i] = num.Mul(den.Invert())
	}
	return out
}
