// Package party defines the two identity spaces used across a ceremony:
// the stable keygen index persisted with a key share, and the transient
// 0-based position a party occupies within one signing group.
package party

import (
	"fmt"
	"sort"

	"github.com/cronokirby/saferith"
)

// Index is a party's 0-based identity assigned at keygen. It is stable
// for the lifetime of a key share and is the identifier carried on the
// signing wire as `sender`/`recipient`/`party_index`.
type Index uint16

// Position is a party's 0-based offset within `parties_at_keygen`, i.e.
// its identity inside one signing group. Positions are session-scoped
// and are what the state machine itself uses as party identity.
type Position uint16

// Nat returns the non-zero x-coordinate (index+1) used to evaluate or
// interpolate polynomials for this index. Index 0 would otherwise
// collide with the secret's own evaluation point at x=0.
func (i Index) Nat() *saferith.Nat {
	return new(saferith.Nat).SetUint64(uint64(i) + 1)
}

// Nat returns the non-zero x-coordinate for a signing position, mirroring
// Index.Nat. Positions and indices share the same Feldman/Lagrange math;
// they are kept as distinct types so the two identity spaces can never be
// mixed up by the compiler.
func (p Position) Nat() *saferith.Nat {
	return new(saferith.Nat).SetUint64(uint64(p) + 1)
}

func (i Index) String() string { return fmt.Sprintf("P[%d]", uint16(i)) }

// PositionOf returns the 0-based offset of keygenIndex within group, and
// false if keygenIndex does not appear in group.
func PositionOf(keygenIndex Index, group []Index) (Position, bool) {
	for pos, id := range group {
		if id == keygenIndex {
			return Position(pos), true
		}
	}
	return 0, false
}

// Sorted returns a sorted copy of ids; Feldman/Lagrange math is
// order-independent but deterministic iteration (e.g. for tests) is
// convenient.
func Sorted(ids []Index) []Index {
	out := make([]Index, len(ids))
	copy(out, ids)
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Contains reports whether ids contains id.
func Contains(ids []Index, id Index) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
