package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the configured interviewer model",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s version: %s\n", app, version)
		fmt.Fprintf(out, "interviewer model: %s\n", viper.GetString("gemini.model"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
