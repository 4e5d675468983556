package cmd

import (
	"fmt"
	"os"

	"insuranceInsights/pkg/logger"

	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:           "insights",
	Short:         "Life insurance risk insights tools",
	Long:          `Offline dashboard computation and account management for the Life Insurance Risk Insights service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Logs go to stderr so command output on stdout stays machine readable.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.Init("development", cmd.ErrOrStderr())
		} else {
			logger.Init("production", cmd.ErrOrStderr())
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
