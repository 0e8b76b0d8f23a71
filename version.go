package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of leadlens",
	// Skip config and logger setup.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leadlens %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
