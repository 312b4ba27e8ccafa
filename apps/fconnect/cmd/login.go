package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/mmcloud"
	"github.com/redartera/flytekit/pkg/openaibatch"
	"github.com/redartera/flytekit/pkg/secrets"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store backend credentials in the OS keyring",
	Long: `Store credentials for the job backends in the OS keyring so subsequent
submit, status, and cancel commands can authenticate.

Examples:
	# store MMCloud OpCenter credentials
	fconnect login --address opcenter.example.com --username admin --password secret

	# store an OpenAI API key
	fconnect login --openai-key sk-...`,
	Run: runLogin,
}

var (
	loginAddress   string
	loginUsername  string
	loginPassword  string
	loginOpenAIKey string
)

func runLogin(cmd *cobra.Command, args []string) {
	ring := secrets.KeyringSource{Service: keyringService}

	stored := 0
	save := func(key, value, label string) {
		if value == "" {
			return
		}
		if err := ring.Set(key, value); err != nil {
			log.Fatalf("failed to save %s to keyring: %v", label, err)
		}
		stored++
	}

	save(mmcloud.SecretAddress, loginAddress, "MMCloud address")
	save(mmcloud.SecretUsername, loginUsername, "MMCloud username")
	save(mmcloud.SecretPassword, loginPassword, "MMCloud password")
	save(openaibatch.SecretAPIKey, loginOpenAIKey, "OpenAI API key")

	if stored == 0 {
		log.Fatal("nothing to store, pass --address/--username/--password or --openai-key")
	}
	fmt.Printf("Stored %d credential(s)\n", stored)
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginAddress, "address", "", "MMCloud OpCenter address")
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "MMCloud username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "MMCloud password")
	loginCmd.Flags().StringVar(&loginOpenAIKey, "openai-key", "", "OpenAI API key")
}
