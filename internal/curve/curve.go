// Package curve wraps the secp256k1 group operations needed by the
// Feldman-VSS keygen and commit-reveal-combine signing protocols:
// scalar arithmetic on math/big, with saferith.Nat conversions at the
// boundary (so Lagrange interpolation can stay expressed the same way
// the teacher's polynomial tests use it), and point arithmetic backed
// by decred's Jacobian implementation.
package curve

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var order = secp256k1.S256().N

// Order is the secp256k1 group order as a saferith modulus.
var Order = saferith.ModulusFromBytes(order.Bytes())

// Scalar is an element of Z_n, n the curve order. Internally it keeps a
// big.Int for arithmetic (so this package never has to guess at
// saferith's lower-level modular-arithmetic surface) but speaks
// saferith.Nat at its public boundary, matching the teacher's own
// `group.NewScalar().SetNat(...)` convention.
type Scalar struct {
	v *big.Int
}

// NewScalar returns the zero scalar.
func NewScalar() *Scalar {
	return &Scalar{v: new(big.Int)}
}

// ScalarFromUint64 returns the scalar representing x.
func ScalarFromUint64(x uint64) *Scalar {
	return &Scalar{v: new(big.Int).SetUint64(x)}
}

// SetNat reduces n modulo the curve order and stores the result.
func (s *Scalar) SetNat(n *saferith.Nat) *Scalar {
	big := new(big.Int).SetBytes(n.Bytes())
	big.Mod(big, order)
	s.v = big
	return s
}

// Nat returns the saferith representation of s.
func (s *Scalar) Nat() *saferith.Nat {
	return new(saferith.Nat).SetBytes(s.v.Bytes())
}

// RandomScalar samples a uniformly random non-zero scalar, shared by
// every protocol round that needs fresh randomness (polynomial
// coefficients, Schnorr nonces, signing nonces).
func RandomScalar() *Scalar {
	var buf [32]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			continue
		}
		s := SetBytesModOrder(buf[:])
		if !s.IsZero() {
			return s
		}
	}
}

// SetBytesModOrder interprets b as a big-endian integer and reduces
// modulo the curve order: the "big-endian reduction" §4.4 requires when
// turning a message hash into a scalar.
func SetBytesModOrder(b []byte) *Scalar {
	v := new(big.Int).SetBytes(b)
	v.Mod(v, order)
	return &Scalar{v: v}
}

// Add returns s+o mod n as a new scalar.
func (s *Scalar) Add(o *Scalar) *Scalar {
	v := new(big.Int).Add(s.v, o.v)
	v.Mod(v, order)
	return &Scalar{v: v}
}

// Mul returns s*o mod n as a new scalar.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	v := new(big.Int).Mul(s.v, o.v)
	v.Mod(v, order)
	return &Scalar{v: v}
}

// Negate returns -s mod n.
func (s *Scalar) Negate() *Scalar {
	v := new(big.Int).Neg(s.v)
	v.Mod(v, order)
	return &Scalar{v: v}
}

// Invert returns s^-1 mod n. s must be non-zero.
func (s *Scalar) Invert() *Scalar {
	v := new(big.Int).ModInverse(s.v, order)
	return &Scalar{v: v}
}

// IsZero reports whether s is the additive identity.
func (s *Scalar) IsZero() bool {
	return s.v.Sign() == 0
}

// Equal reports whether s and o represent the same residue.
func (s *Scalar) Equal(o *Scalar) bool {
	return s.v.Cmp(o.v) == 0
}

// Bytes returns the 32-byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	out := make([]byte, 32)
	b := s.v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

func (s *Scalar) modScalar() *secp256k1.ModNScalar {
	var ms secp256k1.ModNScalar
	ms.SetByteSlice(s.Bytes())
	return &ms
}

// Point is a point on the secp256k1 curve.
type Point struct {
	p secp256k1.JacobianPoint
}

// NewPoint returns the point at infinity (additive identity).
func NewPoint() *Point {
	p := &Point{}
	p.p.X.SetInt(0)
	p.p.Y.SetInt(0)
	p.p.Z.SetInt(0)
	return p
}

// BasePoint returns the secp256k1 generator G.
func BasePoint() *Point {
	p := &Point{}
	params := secp256k1.S256().Params()
	p.p.X.SetByteSlice(params.Gx.Bytes())
	p.p.Y.SetByteSlice(params.Gy.Bytes())
	p.p.Z.SetInt(1)
	return p
}

// ScalarBaseMul returns s*G.
func ScalarBaseMul(s *Scalar) *Point {
	p := &Point{}
	secp256k1.ScalarBaseMultNonConst(s.modScalar(), &p.p)
	return p
}

// ScalarMul returns s*P.
func ScalarMul(s *Scalar, P *Point) *Point {
	p := &Point{}
	secp256k1.ScalarMultNonConst(s.modScalar(), &P.p, &p.p)
	return p
}

// Add returns p+o.
func (p *Point) Add(o *Point) *Point {
	out := &Point{}
	secp256k1.AddNonConst(&p.p, &o.p, &out.p)
	return out
}

// Equal reports whether p and o are the same affine point.
func (p *Point) Equal(o *Point) bool {
	a, b := p.p, o.p
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// CompressedBytes returns the 33-byte SEC1-compressed encoding.
func (p *Point) CompressedBytes() [33]byte {
	a := p.p
	a.ToAffine()
	pub := secp256k1.NewPublicKey(&a.X, &a.Y)
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out
}

// ParseCompressed decodes a 33-byte SEC1-compressed point.
func ParseCompressed(b []byte) (*Point, error) {
	if len(b) != 33 {
		return nil, errors.New("curve: compressed point must be 33 bytes")
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	p := &Point{}
	pub.AsJacobian(&p.p)
	return p, nil
}

// XScalar returns the affine x-coordinate reduced modulo the curve
// order, used to derive the `r` component of a signature from the
// combined nonce point.
func (p *Point) XScalar() *Scalar {
	a := p.p
	a.ToAffine()
	xBytes := a.X.Bytes()
	return SetBytesModOrder(xBytes[:])
}

var halfOrder = new(big.Int).Rsh(order, 1)

// IsLowS reports whether s lies in the lower half of the curve order,
// the canonical form Ethereum (and this repository) requires.
func IsLowS(s *Scalar) bool {
	return s.v.Cmp(halfOrder) <= 0
}

// NormalizeLowS returns s if it is already low-form, or n-s otherwise.
func NormalizeLowS(s *Scalar) *Scalar {
	if IsLowS(s) {
		return s
	}
	return s.Negate()
}
