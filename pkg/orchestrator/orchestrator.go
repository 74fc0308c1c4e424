// Package orchestrator runs a full DKG ceremony end to end: the
// aux-info phase followed by the keygen phase, each driven to
// completion via pkg/simulator, with fast paths that skip prime
// generation or the aux-info phase entirely when the caller already
// has that material on hand.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/luxfi/cggmp-signer/internal/paillier"
	"github.com/luxfi/cggmp-signer/pkg/driver"
	"github.com/luxfi/cggmp-signer/pkg/party"
	"github.com/luxfi/cggmp-signer/pkg/primegen"
	"github.com/luxfi/cggmp-signer/pkg/round"
	"github.com/luxfi/cggmp-signer/pkg/simulator"
	"github.com/luxfi/cggmp-signer/pkg/wire"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
	"github.com/luxfi/cggmp-signer/protocols/keygen"
)

// Options configures one ceremony run. Threshold defaults to N
// (every party required to sign) when zero. ExecutionID is passed to
// the aux-info phase as given; a nil value is not replaced.
type Options struct {
	N           int
	Threshold   int
	ExecutionID []byte

	// Primes, when it has N entries, lets Phase A skip its own prime
	// generation and derive each party's Paillier key from pre-generated
	// material instead (the `dkg-with-primes` fast path).
	Primes []*primegen.PrimePair

	// AuxInfo, when it has N entries, skips Phase A entirely and reuses
	// this pre-generated aux-info verbatim (the `dkg-with-aux` fast path).
	AuxInfo []*auxinfo.Output

	// Logger receives phase-boundary messages at V(1). Defaults to a
	// discard logger when left unset.
	Logger logr.Logger
}

func (o Options) logger() logr.Logger {
	if o.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return o.Logger
}

// Run executes the ceremony and returns the wire-ready DKG output: one
// DkgShare per party plus the group's combined public key.
func Run(ctx context.Context, opts Options) (*wire.DkgOutput, error) {
	if opts.N < 2 {
		return nil, fmt.Errorf("orchestrator: n must be at least 2, got %d", opts.N)
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = opts.N
	}
	if threshold < 2 || threshold > opts.N {
		return nil, fmt.Errorf("orchestrator: threshold must be in [2, %d], got %d", opts.N, threshold)
	}
	log := opts.logger()

	log.V(1).Info("starting aux-info phase", "n", opts.N)
	auxOutputs, err := phaseA(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: aux-info phase: %w", err)
	}

	log.V(1).Info("starting keygen phase", "n", opts.N, "threshold", threshold)
	keyResults, err := simulator.Run(opts.N, func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		first, out, err := keygen.Start(self, opts.N, threshold)
		if err != nil {
			return nil, nil, nil, err
		}
		return first, out, &driver.Auxiliary{}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: keygen phase: %w", err)
	}
	log.V(1).Info("ceremony complete")

	keyOutputs := make([]*keygen.Output, opts.N)
	for i, r := range keyResults {
		out, ok := r.(*keygen.Output)
		if !ok {
			return nil, fmt.Errorf("orchestrator: party %d produced unexpected keygen output type", i)
		}
		keyOutputs[i] = out
	}

	shares := make([]wire.DkgShare, opts.N)
	for i := 0; i < opts.N; i++ {
		coreShare, err := wire.EncodeBlob(keyOutputs[i])
		if err != nil {
			return nil, fmt.Errorf("orchestrator: encoding core_share for party %d: %w", i, err)
		}
		auxInfo, err := wire.EncodeBlob(auxOutputs[i])
		if err != nil {
			return nil, fmt.Errorf("orchestrator: encoding aux_info for party %d: %w", i, err)
		}
		shares[i] = wire.DkgShare{CoreShare: coreShare, AuxInfo: auxInfo}
	}

	pk := keyOutputs[0].PublicKey.CompressedBytes()
	return &wire.DkgOutput{Shares: shares, PublicKey: wire.EncodeHex(pk[:])}, nil
}

// GenAux runs the aux-info phase alone, for the `gen-aux` subcommand
// that pre-generates aux-info batches for later `dkg-with-aux` runs.
func GenAux(ctx context.Context, opts Options) (*wire.AuxInfoOutput, error) {
	if opts.N < 2 {
		return nil, fmt.Errorf("orchestrator: n must be at least 2, got %d", opts.N)
	}
	opts.logger().V(1).Info("generating standalone aux-info batch", "n", opts.N)
	auxOutputs, err := phaseA(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: aux-info phase: %w", err)
	}
	encoded := make([]string, opts.N)
	for i, out := range auxOutputs {
		blob, err := wire.EncodeBlob(out)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: encoding aux_info for party %d: %w", i, err)
		}
		encoded[i] = blob
	}
	return &wire.AuxInfoOutput{AuxInfos: encoded, N: opts.N}, nil
}

// phaseA runs the aux-info ceremony, or returns opts.AuxInfo verbatim
// when the caller already supplied a full batch.
func phaseA(ctx context.Context, opts Options) ([]*auxinfo.Output, error) {
	if len(opts.AuxInfo) == opts.N {
		return opts.AuxInfo, nil
	}

	keys, err := resolveKeys(opts)
	if err != nil {
		return nil, err
	}

	results, err := simulator.Run(opts.N, func(self party.Position) (round.Session, []round.OutMessage, *driver.Auxiliary, error) {
		var first round.Session
		var out []round.OutMessage
		var err error
		if keys != nil {
			first, out, err = auxinfo.StartWithKey(self, opts.N, opts.ExecutionID, keys[self])
		} else {
			first, out, err = auxinfo.Start(self, opts.N, opts.ExecutionID)
		}
		if err != nil {
			return nil, nil, nil, err
		}
		return first, out, &driver.Auxiliary{}, nil
	})
	if err != nil {
		return nil, err
	}

	outputs := make([]*auxinfo.Output, opts.N)
	for i, r := range results {
		out, ok := r.(*auxinfo.Output)
		if !ok {
			return nil, fmt.Errorf("party %d produced unexpected aux-info output type", i)
		}
		outputs[i] = out
	}
	return outputs, nil
}

// resolveKeys derives each party's Paillier key from opts.Primes when a
// full batch was supplied, or returns nil to signal "generate fresh".
func resolveKeys(opts Options) ([]*paillier.PrivateKey, error) {
	if len(opts.Primes) != opts.N {
		return nil, nil
	}
	keys := make([]*paillier.PrivateKey, opts.N)
	for i, pair := range opts.Primes {
		key, err := pair.Key()
		if err != nil {
			return nil, fmt.Errorf("deriving paillier key for party %d: %w", i, err)
		}
		keys[i] = key
	}
	return keys, nil
}
