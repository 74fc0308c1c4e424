// Package paillier implements the additively homomorphic Paillier
// cryptosystem used to back aux-info key material. Each party's
// aux-info phase generates one keypair here; the modulus is published,
// the private key never leaves the party that generated it.
package paillier

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

var one = big.NewInt(1)

// KeyBits is the Paillier modulus bit-length aux-info generates.
// Production CGGMP deployments use larger moduli (and biprime/safe-prime
// proofs this repository's aux-info round does not implement); this is
// sized for interactive ceremony latency.
const KeyBits = 2048

// PublicKey holds the Paillier modulus n (and its square, cached).
type PublicKey struct {
	N  *big.Int `json:"n"`
	N2 *big.Int `json:"n2"`
}

// PrivateKey holds the decryption exponents alongside the public key.
type PrivateKey struct {
	PublicKey
	Lambda *big.Int `json:"lambda"`
	Mu     *big.Int `json:"mu"`
}

// GenerateKey samples two random primes of bits/2 bits each and derives
// a Paillier keypair.
func GenerateKey(random io.Reader, bits int) (*PrivateKey, error) {
	if bits < 512 {
		return nil, errors.New("paillier: bits must be at least 512")
	}
	p, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(random, bits/2)
	if err != nil {
		return nil, err
	}
	for p.Cmp(q) == 0 {
		if q, err = rand.Prime(random, bits/2); err != nil {
			return nil, err
		}
	}
	return NewFromPrimes(p, q)
}

// NewFromPrimes derives a Paillier keypair from an already-generated
// pair of distinct primes, the path pkg/primegen's pre-generated primes
// take to skip generation at ceremony time.
func NewFromPrimes(p, q *big.Int) (*PrivateKey, error) {
	if p.Cmp(q) == 0 {
		return nil, errors.New("paillier: p and q must be distinct")
	}

	n := new(big.Int).Mul(p, q)
	n2 := new(big.Int).Mul(n, n)

	pMinus1 := new(big.Int).Sub(p, one)
	qMinus1 := new(big.Int).Sub(q, one)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Mul(pMinus1, qMinus1)
	lambda.Div(lambda, gcd)

	mu := new(big.Int).ModInverse(lambda, n)
	if mu == nil {
		return nil, errors.New("paillier: failed to compute mu")
	}

	return &PrivateKey{
		PublicKey: PublicKey{N: n, N2: n2},
		Lambda:    lambda,
		Mu:        mu,
	}, nil
}

// Encrypt returns ciphertext c = (1+n*m)*r^n mod n^2 and the randomness
// r used, so callers needing a ZK-proof-friendly encryption can retain it.
func (pk *PublicKey) Encrypt(m *big.Int) (c, r *big.Int, err error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, nil, errors.New("paillier: message out of range [0,n)")
	}
	r, err = rand.Int(rand.Reader, pk.N)
	if err != nil {
		return nil, nil, err
	}
	if r.Sign() == 0 {
		r = big.NewInt(1)
	}
	c, err = pk.EncryptWithNonce(m, r)
	return c, r, err
}

// EncryptWithNonce encrypts m using a caller-supplied nonce r, needed to
// build or verify zero-knowledge proofs about a ciphertext's plaintext.
func (pk *PublicKey) EncryptWithNonce(m, r *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pk.N) >= 0 {
		return nil, errors.New("paillier: message out of range [0,n)")
	}
	gm := new(big.Int).Mul(pk.N, m)
	gm.Add(gm, one)
	rn := new(big.Int).Exp(r, pk.N, pk.N2)
	c := new(big.Int).Mul(gm, rn)
	c.Mod(c, pk.N2)
	return c, nil
}

// Decrypt recovers the plaintext m = L(c^lambda mod n^2) * mu mod n.
func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	if c.Sign() < 0 || c.Cmp(sk.N2) >= 0 {
		return nil, errors.New("paillier: ciphertext out of range [0,n^2)")
	}
	u := new(big.Int).Exp(c, sk.Lambda, sk.N2)
	l := new(big.Int).Sub(u, one)
	l.Div(l, sk.N)
	m := new(big.Int).Mul(l, sk.Mu)
	m.Mod(m, sk.N)
	return m, nil
}

// AddCiphertexts performs homomorphic addition: E(m1)*E(m2) = E(m1+m2).
func (pk *PublicKey) AddCiphertexts(c1, c2 *big.Int) *big.Int {
	c := new(big.Int).Mul(c1, c2)
	c.Mod(c, pk.N2)
	return c
}

// MulConstant performs homomorphic scalar multiplication: E(m)^k = E(m*k).
func (pk *PublicKey) MulConstant(c, k *big.Int) *big.Int {
	return new(big.Int).Exp(c, k, pk.N2)
}
