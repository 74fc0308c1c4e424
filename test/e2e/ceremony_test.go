package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/cggmp-signer/internal/curve"
	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/orchestrator"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/round"
	"github.com/luxfi/cggmp-signer/pkg/signloop"
	"github.com/luxfi/cggmp-signer/pkg/simulator"
	"github.com/luxfi/cggmp-signer/pkg/wire"
	"github.com/luxfi/cggmp-signer/protocols/keygen"
	"github.com/luxfi/cggmp-signer/protocols/sign"
)

const fixedMessageHash = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"

// signSubset decodes each participant's core_share from a DkgOutput and
// drives a signing round over exactly that subset of keygen indices,
// returning the combined signature.
func signSubset(dkg *wire.DkgOutput, participants []party.Index, messageHashHex string) *sign.Output {
	hashBytes, err := wire.DecodeHexFixed(messageHashHex, 32)
	Expect(err).NotTo(HaveOccurred())
	message := curve.SetBytesModOrder(hashBytes)

	shares := make([]*keygen.Output, len(participants))
	for i, idx := range participants {
		var out keygen.Output
		Expect(wire.DecodeBlob(dkg.Shares[idx].CoreShare, &out)).To(Succeed())
		shares[i] = &out
	}

	results, err := simulator.Run(len(participants), func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		first, out, err := sign.Start(self, participants, shares[self].Share, message)
		if err != nil {
			return nil, nil, nil, err
		}
		return first, out, &driver.Auxiliary{}, nil
	})
	Expect(err).NotTo(HaveOccurred())

	signed := make([]*sign.Output, len(results))
	for i, r := range results {
		out, ok := r.(*sign.Output)
		Expect(ok).To(BeTrue())
		signed[i] = out
	}
	for _, s := range signed[1:] {
		Expect(s.R.Equal(signed[0].R)).To(BeTrue())
		Expect(s.S.Equal(signed[0].S)).To(BeTrue())
	}
	return signed[0]
}

// verifySignature checks that (r,s) is a valid ECDSA signature over
// hashHex under the group public key carried in dkg.PublicKey, using
// decred's secp256k1 ECDSA verifier rather than this repository's
// signing math, so a regression there can't mask itself.
func verifySignature(dkg *wire.DkgOutput, hashHex string, out *sign.Output) {
	pubKeyBytes, err := wire.DecodeHexFixed(dkg.PublicKey, 33)
	Expect(err).NotTo(HaveOccurred())
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	Expect(err).NotTo(HaveOccurred())

	hashBytes, err := wire.DecodeHexFixed(hashHex, 32)
	Expect(err).NotTo(HaveOccurred())

	var rScalar, sScalar secp256k1.ModNScalar
	rScalar.SetByteSlice(out.R.Bytes())
	sScalar.SetByteSlice(out.S.Bytes())

	sig := ecdsa.NewSignature(&rScalar, &sScalar)
	Expect(sig.Verify(hashBytes, pubKey)).To(BeTrue())
}

var _ = Describe("full ceremony round trip", func() {
	It("drives a 2-of-2 DKG then signs with every cosigner", func() {
		dkg, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 2, Threshold: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(dkg.Shares).To(HaveLen(2))
		Expect(dkg.PublicKey).To(HaveLen(66))

		out := signSubset(dkg, []party.Index{0, 1}, fixedMessageHash)
		Expect(out.R.IsZero()).To(BeFalse())
		Expect(out.S.IsZero()).To(BeFalse())
		verifySignature(dkg, fixedMessageHash, out)
	})

	It("drives a 3-party DKG with threshold 2 and signs with a non-contiguous subset", func() {
		dkg, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(dkg.Shares).To(HaveLen(3))

		// Parties 0 and 2 cosign; party 1 never participates in this run,
		// exercising participants that are not a contiguous prefix.
		out := signSubset(dkg, []party.Index{0, 2}, fixedMessageHash)
		Expect(out.R.IsZero()).To(BeFalse())
		Expect(out.S.IsZero()).To(BeFalse())
		verifySignature(dkg, fixedMessageHash, out)
	})

	It("drives a DKG where every party must cosign (threshold == n)", func() {
		dkg, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 3})
		Expect(err).NotTo(HaveOccurred())

		out := signSubset(dkg, []party.Index{0, 1, 2}, fixedMessageHash)
		Expect(out.R.IsZero()).To(BeFalse())
		verifySignature(dkg, fixedMessageHash, out)
	})
})

var _ = Describe("simulator liveness backstop", func() {
	It("reports the protocol did not complete when a party's session never becomes ready", func() {
		_, err := simulator.Run(2, func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
			if self == 1 {
				return &stuckSession{self: self, n: 2}, nil, &driver.Auxiliary{}, nil
			}
			first, out, err := sign.Start(self, []party.Index{0, 1}, curve.ScalarFromUint64(7), curve.ScalarFromUint64(1))
			if err != nil {
				return nil, nil, nil, err
			}
			return first, out, &driver.Auxiliary{}, nil
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("protocol did not complete"))
	})
})

// stuckSession is a round.Session that never becomes Ready and never
// emits anything, used only to force the simulator's iteration cap.
type stuckSession struct {
	round.NoImmediate
	self party.Position
	n    int
}

func (s *stuckSession) Number() round.Number       { return 1 }
func (s *stuckSession) N() int                      { return s.n }
func (s *stuckSession) SelfID() party.Position      { return s.self }
func (s *stuckSession) IsBroadcastRound() bool      { return false }
func (s *stuckSession) StoreMessage(party.Position, bool, []byte) error { return nil }
func (s *stuckSession) Ready() bool                 { return false }
func (s *stuckSession) Finalize() (round.Session, []round.OutMessage, error) {
	return nil, nil, nil
}

var _ = Describe("signloop wire-level edge cases", func() {
	var dkg *wire.DkgOutput

	BeforeEach(func() {
		var err error
		dkg, err = orchestrator.Run(context.Background(), orchestrator.Options{N: 2, Threshold: 2})
		Expect(err).NotTo(HaveOccurred())
	})

	buildInit := func(partyIndex uint16) wire.SignInit {
		return wire.SignInit{
			CoreShare:       dkg.Shares[partyIndex].CoreShare,
			AuxInfo:         dkg.Shares[partyIndex].AuxInfo,
			MessageHash:     fixedMessageHash,
			PartyIndex:      partyIndex,
			PartiesAtKeygen: []uint16{0, 1},
			Eid:             strings.Repeat("ab", 32),
		}
	}

	It("rejects an envelope from a sender outside parties_at_keygen", func() {
		init := buildInit(0)
		initLine, err := json.Marshal(init)
		Expect(err).NotTo(HaveOccurred())

		badEnvelope, err := json.Marshal([]wire.EnvelopeMsg{{
			Sender:      9,
			IsBroadcast: true,
			Payload:     wire.EncodeRawBlob([]byte(`{"kind":"original"}`)),
		}})
		Expect(err).NotTo(HaveOccurred())

		in := bytes.NewBufferString(string(initLine) + "\n" + string(badEnvelope) + "\n")
		var out bytes.Buffer
		err = signloop.Run(in, &out)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown sender"))
	})

	It("silently skips a point-to-point envelope addressed to a different party", func() {
		init := buildInit(0)
		initLine, err := json.Marshal(init)
		Expect(err).NotTo(HaveOccurred())

		otherRecipient := uint16(1)
		notForMe, err := json.Marshal([]wire.EnvelopeMsg{{
			Sender:      1,
			IsBroadcast: false,
			Recipient:   &otherRecipient,
			Payload:     wire.EncodeRawBlob([]byte(`{"kind":"partial","sender":1,"body":{}}`)),
		}})
		Expect(err).NotTo(HaveOccurred())

		in := bytes.NewBufferString(string(initLine) + "\n" + string(notForMe) + "\n")
		var out bytes.Buffer
		err = signloop.Run(in, &out)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).NotTo(BeEmpty())
	})
})

var _ = Describe("signing group below threshold", func() {
	It("rejects at init a signing group smaller than the keygen threshold", func() {
		dkg, err := orchestrator.Run(context.Background(), orchestrator.Options{N: 3, Threshold: 3})
		Expect(err).NotTo(HaveOccurred())

		// Only parties 0 and 2 show up, but keygen required all 3.
		init := wire.SignInit{
			CoreShare:       dkg.Shares[0].CoreShare,
			AuxInfo:         dkg.Shares[0].AuxInfo,
			MessageHash:     fixedMessageHash,
			PartyIndex:      0,
			PartiesAtKeygen: []uint16{0, 2},
			Eid:             strings.Repeat("ab", 32),
		}
		initLine, err := json.Marshal(init)
		Expect(err).NotTo(HaveOccurred())

		in := bytes.NewBufferString(string(initLine) + "\n")
		var out bytes.Buffer
		err = signloop.Run(in, &out)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("below threshold"))
		Expect(out.String()).To(BeEmpty())
	})
})
