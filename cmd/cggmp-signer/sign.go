package main

import (
	"github.com/spf13/cobra"

	"github.com/luxfi/cggmp-signer/pkg/signloop"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Run one interactive signing session over stdin/stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signloop.Run(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
