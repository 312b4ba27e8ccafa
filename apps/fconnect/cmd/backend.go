package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/kubebatch"
	"github.com/redartera/flytekit/pkg/mmcloud"
	"github.com/redartera/flytekit/pkg/openaibatch"
	"github.com/redartera/flytekit/pkg/secrets"
)

const keyringService = "fconnect"

func newLogger(cmd *cobra.Command) *flog.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return flog.NewVerbose()
	}
	return flog.NewQuiet()
}

// credSource prefers keyring entries written by `fconnect login`, with
// environment variables as the fallback for CI and containers.
func credSource() secrets.Source {
	return secrets.Chain{
		secrets.KeyringSource{Service: keyringService},
		secrets.EnvSource{},
	}
}

// newConnector builds the named backend from CLI config.
func newConnector(cmd *cobra.Command, name string) (connector.Connector, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd)
	creds := credSource()

	switch name {
	case mmcloud.Name:
		inv := invoker.NewExecInvoker(time.Duration(cfg.MMCloudTimeout)*time.Second, log)
		return mmcloud.NewConnector(cfg.MMCloudBin, inv, creds, log), nil
	case openaibatch.Name:
		client := invoker.NewClient(cfg.OpenAIBaseURL, 30*time.Second, log)
		return openaibatch.NewConnector(client, creds, log), nil
	case kubebatch.Name:
		clientset, err := kubebatch.NewClientset()
		if err != nil {
			return nil, fmt.Errorf("connecting to kubernetes: %w", err)
		}
		return kubebatch.NewConnector(clientset, cfg.K8sNamespace, log), nil
	default:
		return nil, fmt.Errorf("unknown connector %q (want %s, %s, or %s)",
			name, mmcloud.Name, openaibatch.Name, kubebatch.Name)
	}
}
