package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxfi/cggmp-signer/internal/paillier"
	"github.com/luxfi/cggmp-signer/pkg/primegen"
	"github.com/luxfi/cggmp-signer/pkg/wire"
)

var primesCmd = &cobra.Command{
	Use:   "primes [count]",
	Short: "Pre-generate count independent Paillier prime pairs for later dkg-with-primes runs",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 1
		var err error
		if len(args) == 1 {
			if count, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("parsing count: %w", err)
			}
		}

		pairs, err := primegen.GenerateBatch(context.Background(), count, paillier.KeyBits)
		if err != nil {
			return fmt.Errorf("generating primes: %w", err)
		}

		w := cmd.OutOrStdout()
		for i, pair := range pairs {
			encoded, err := primegen.Encode(pair)
			if err != nil {
				return fmt.Errorf("encoding prime pair %d: %w", i, err)
			}
			if _, err := fmt.Fprintln(w, wire.EncodeRawBlob(encoded)); err != nil {
				return err
			}
		}
		return nil
	},
}
