package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the epochsim command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "epochsim",
		Short:        "Run subnet emission epochs against a local chain store",
		SilenceUsage: true,
	}
	cmd.AddCommand(CmdRun())
	return cmd
}
