package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "connectord",
	Short: "Connector service",
	Long:  `connectord exposes the registered job connectors over HTTP so a workflow engine can submit, poll, and cancel jobs on external backends.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
