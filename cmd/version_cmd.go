package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/tigrisdata/inviter/cmd.Version=..."
var Version = "dev"

var versionCmd = cobra.Command{
	Use:   "version",
	Short: "Print the inviter version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}
