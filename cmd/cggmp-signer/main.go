// Command cggmp-signer is the stdio entry point for the DKG ceremony
// and interactive signing loop: one subcommand per mode, each with its
// own stdin/stdout contract, so a host process can pipe JSON lines in
// and out without linking against this module's Go API directly.
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/luxfi/cggmp-signer/pkg/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "cggmp-signer",
	Short: "Threshold ECDSA DKG ceremony and signing loop",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		newLogger().V(1).Info("running subcommand", "command", cmd.Name())
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(dkgCmd, dkgWithPrimesCmd, dkgWithAuxCmd, genAuxCmd, primesCmd, signCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cggmp-signer: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() logr.Logger {
	l, err := logging.New(verbose)
	if err != nil {
		return logging.NewNop()
	}
	return l
}
