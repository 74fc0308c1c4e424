// Package primegen pre-generates the prime material each party's
// aux-info Paillier keypair needs, so a ceremony's interactive phase
// never pays prime-generation latency. Generation is the one CPU-bound,
// non-interactive step in this module; it runs outside the single-
// threaded cooperative driving loop that every other package uses, via
// an errgroup fan-out bounded by the caller's context.
package primegen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/cggmp-signer/internal/paillier"
)

// PrimePair is one party's raw Paillier prime material. It is opaque on
// the wire: callers move it around as the bytes Encode returns and
// never need its fields directly, matching the core_share/aux_info
// blobs elsewhere in this module.
type PrimePair struct {
	P *big.Int
	Q *big.Int
}

// primePairWire is PrimePair's CBOR-friendly shape; big.Int marshals to
// CBOR natively via cbor's big.Int support, but pinning the field order
// and names here keeps the wire shape independent of that library's
// default struct-tag behavior.
type primePairWire struct {
	P []byte `cbor:"p"`
	Q []byte `cbor:"q"`
}

// Generate samples a single pair of distinct random primes of bits/2
// bits each, suitable for paillier.NewFromPrimes.
func Generate(bits int) (*PrimePair, error) {
	if bits < 512 {
		return nil, fmt.Errorf("primegen: bits must be at least 512")
	}
	p, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, fmt.Errorf("primegen: %w", err)
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, fmt.Errorf("primegen: %w", err)
	}
	for p.Cmp(q) == 0 {
		if q, err = rand.Prime(rand.Reader, bits/2); err != nil {
			return nil, fmt.Errorf("primegen: %w", err)
		}
	}
	return &PrimePair{P: p, Q: q}, nil
}

// GenerateBatch samples n independent prime pairs concurrently, one
// goroutine per pair, stopping at the first failure or at ctx
// cancellation.
func GenerateBatch(ctx context.Context, n, bits int) ([]*PrimePair, error) {
	out := make([]*PrimePair, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			pair, err := Generate(bits)
			if err != nil {
				return fmt.Errorf("primegen: party %d: %w", i, err)
			}
			out[i] = pair
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Encode CBOR-encodes a prime pair for storage or transfer between the
// `primes` subcommand and a later `dkg-with-primes` run.
func Encode(p *PrimePair) ([]byte, error) {
	b, err := cbor.Marshal(primePairWire{P: p.P.Bytes(), Q: p.Q.Bytes()})
	if err != nil {
		return nil, fmt.Errorf("primegen: encoding: %w", err)
	}
	return b, nil
}

// Decode is the inverse of Encode.
func Decode(b []byte) (*PrimePair, error) {
	var w primePairWire
	if err := cbor.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("primegen: decoding: %w", err)
	}
	return &PrimePair{P: new(big.Int).SetBytes(w.P), Q: new(big.Int).SetBytes(w.Q)}, nil
}

// Key derives the Paillier keypair this pair produces.
func (p *PrimePair) Key() (*paillier.PrivateKey, error) {
	return paillier.NewFromPrimes(p.P, p.Q)
}
