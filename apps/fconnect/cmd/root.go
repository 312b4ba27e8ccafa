package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

type contextKey string

const configContextKey contextKey = "fconnectconfig"

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "fconnect",
		Short: "CLI for submitting jobs to external execution backends",
		Long: `fconnect is a small command-line tool for driving the job connectors
directly: submit a job to a backend (MMCloud, OpenAI batch, Kubernetes),
poll its phase with the handle printed at submission, and cancel it.
Use the login subcommand to store backend credentials in the OS keyring.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgFile)
			if err != nil {
				return err
			}

			if err := cfg.Viper().BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			cmd.SetContext(ctx)

			return nil
		},
	}
)

// GetConfig retrieves the Config from the command context
func GetConfig(cmd *cobra.Command) (*Config, error) {
	ctx := cmd.Context()
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return cfg, nil
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML). Searches: fconnect.yaml, .fconnect/config.yaml")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
