package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/mmcloud"
	"github.com/redartera/flytekit/pkg/openaibatch"
	"github.com/redartera/flytekit/pkg/secrets"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored backend credentials from the OS keyring",
	Run: func(cmd *cobra.Command, args []string) {
		ring := secrets.KeyringSource{Service: keyringService}

		removed := 0
		for _, key := range []string{
			mmcloud.SecretAddress,
			mmcloud.SecretUsername,
			mmcloud.SecretPassword,
			openaibatch.SecretAPIKey,
		} {
			if err := ring.Delete(key); err == nil {
				removed++
			}
		}
		fmt.Printf("Removed %d credential(s)\n", removed)
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
