// Lead Lens turns a business photo, a description or a map search into a
// qualified lead analysis and a ready-to-send pitch.
package main

import (
	"os"

	"github.com/n2digital-pt/lead-lens-n2/config"
	"github.com/n2digital-pt/lead-lens-n2/utils"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "leadlens",
	Short: "Lead generation assistant backed by Gemini",
	Long: `leadlens analyses a business photo, a free-text description or a map search
with Gemini and returns a marketing analysis, a pitch and grounding citations.

Run "leadlens serve" for the browser UI and JSON API, or "leadlens analyze"
for a one-shot analysis in the terminal.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfgFile, _ := cmd.Flags().GetString("config")
		config.LoadConfig(cfgFile)
		utils.InitializeLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
