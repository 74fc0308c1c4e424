package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/luxfi/cggmp-signer/pkg/orchestrator"
	"github.com/luxfi/cggmp-signer/pkg/primegen"
	"github.com/luxfi/cggmp-signer/pkg/wire"
	"github.com/luxfi/cggmp-signer/protocols/auxinfo"
)

var dkgCmd = &cobra.Command{
	Use:   "dkg n threshold [eid_hex]",
	Short: "Run a full DKG ceremony, generating aux-info fresh",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, threshold, eid, err := parseCeremonyArgs(args)
		if err != nil {
			return err
		}
		out, err := orchestrator.Run(context.Background(), orchestrator.Options{N: n, Threshold: threshold, ExecutionID: eid, Logger: newLogger()})
		if err != nil {
			return err
		}
		return writeJSONLine(cmd.OutOrStdout(), out)
	},
}

var dkgWithPrimesCmd = &cobra.Command{
	Use:   "dkg-with-primes n threshold [eid_hex]",
	Short: "Run a DKG ceremony, deriving aux-info from n pre-generated prime blobs read from stdin",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, threshold, eid, err := parseCeremonyArgs(args)
		if err != nil {
			return err
		}
		lines, err := readLines(cmd.InOrStdin(), n)
		if err != nil {
			return fmt.Errorf("reading pre-generated primes: %w", err)
		}
		primes := make([]*primegen.PrimePair, n)
		for i, line := range lines {
			raw, err := wire.DecodeRawBlob(line)
			if err != nil {
				return fmt.Errorf("decoding prime blob %d: %w", i, err)
			}
			pair, err := primegen.Decode(raw)
			if err != nil {
				return fmt.Errorf("decoding prime blob %d: %w", i, err)
			}
			primes[i] = pair
		}
		out, err := orchestrator.Run(context.Background(), orchestrator.Options{N: n, Threshold: threshold, ExecutionID: eid, Primes: primes, Logger: newLogger()})
		if err != nil {
			return err
		}
		return writeJSONLine(cmd.OutOrStdout(), out)
	},
}

var dkgWithAuxCmd = &cobra.Command{
	Use:   "dkg-with-aux n threshold [eid_hex]",
	Short: "Run only the keygen phase, reusing an AuxInfoOutput batch read from stdin",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, threshold, eid, err := parseCeremonyArgs(args)
		if err != nil {
			return err
		}
		var batch wire.AuxInfoOutput
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		if !scanner.Scan() {
			return fmt.Errorf("missing aux-info line on stdin")
		}
		if err := json.Unmarshal(scanner.Bytes(), &batch); err != nil {
			return fmt.Errorf("decoding aux-info line: %w", err)
		}
		if batch.N != n || len(batch.AuxInfos) != n {
			return fmt.Errorf("aux-info batch has %d entries, want %d", len(batch.AuxInfos), n)
		}
		auxOutputs := make([]*auxinfo.Output, n)
		for i, blob := range batch.AuxInfos {
			var out auxinfo.Output
			if err := wire.DecodeBlob(blob, &out); err != nil {
				return fmt.Errorf("decoding aux-info entry %d: %w", i, err)
			}
			auxOutputs[i] = &out
		}
		out, err := orchestrator.Run(context.Background(), orchestrator.Options{N: n, Threshold: threshold, ExecutionID: eid, AuxInfo: auxOutputs, Logger: newLogger()})
		if err != nil {
			return err
		}
		return writeJSONLine(cmd.OutOrStdout(), out)
	},
}

var genAuxCmd = &cobra.Command{
	Use:   "gen-aux n [count]",
	Short: "Pre-generate count independent n-party aux-info batches",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("parsing n: %w", err)
		}
		count := 1
		if len(args) == 2 {
			if count, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("parsing count: %w", err)
			}
		}
		for i := 0; i < count; i++ {
			out, err := orchestrator.GenAux(context.Background(), orchestrator.Options{N: n, Logger: newLogger()})
			if err != nil {
				return err
			}
			if err := writeJSONLine(cmd.OutOrStdout(), out); err != nil {
				return err
			}
		}
		return nil
	},
}

func parseCeremonyArgs(args []string) (n, threshold int, eid []byte, err error) {
	n, err = strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("parsing n: %w", err)
	}
	threshold, err = strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("parsing threshold: %w", err)
	}
	if len(args) == 3 {
		eid, err = hex.DecodeString(args[2])
		if err != nil {
			return 0, 0, nil, fmt.Errorf("parsing eid_hex: %w", err)
		}
	} else {
		eid = make([]byte, 32)
		if _, err := rand.Read(eid); err != nil {
			return 0, 0, nil, fmt.Errorf("generating eid: %w", err)
		}
	}
	return n, threshold, eid, nil
}

func readLines(r io.Reader, want int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lines := make([]string, 0, want)
	for len(lines) < want && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) != want {
		return nil, fmt.Errorf("expected %d lines, got %d", want, len(lines))
	}
	return lines, nil
}

func writeJSONLine(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}
