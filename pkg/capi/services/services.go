package services

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/redartera/flytekit/pkg/artifacts"
	"github.com/redartera/flytekit/pkg/capi/config"
	"github.com/redartera/flytekit/pkg/capi/services/jobs"
	"github.com/redartera/flytekit/pkg/connector"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/history"
	"github.com/redartera/flytekit/pkg/invoker"
	"github.com/redartera/flytekit/pkg/kubebatch"
	"github.com/redartera/flytekit/pkg/kv"
	"github.com/redartera/flytekit/pkg/mmcloud"
	"github.com/redartera/flytekit/pkg/openaibatch"
	"github.com/redartera/flytekit/pkg/secrets"
)

type Services struct {
	Registry *connector.Registry
	Jobs     *jobs.Service
}

// NewServices wires the configured backends into a registry and builds the
// job service around it. db, kvStore, and artStore may be nil when the
// corresponding concern is not configured.
func NewServices(cfg *config.EnvConfig, db *bun.DB, kvStore kv.Store, artStore artifacts.Store, log *flog.Logger) (*Services, error) {
	registry := connector.NewRegistry()
	creds := secrets.EnvSource{}

	mmInvoker := invoker.NewExecInvoker(time.Duration(cfg.MMCloudTimeout)*time.Second, log)
	registry.Register(mmcloud.Name, mmcloud.NewConnector(cfg.MMCloudBin, mmInvoker, creds, log))

	oaiClient := invoker.NewClient(cfg.OpenAIBaseURL, time.Duration(cfg.OpenAITimeout)*time.Second, log)
	registry.Register(openaibatch.Name, openaibatch.NewConnector(oaiClient, creds, log))

	if cfg.K8sEnabled {
		clientset, err := kubebatch.NewClientset()
		if err != nil {
			return nil, err
		}
		registry.Register(kubebatch.Name, kubebatch.NewConnector(clientset, cfg.K8sNamespace, log))
	}

	// Typed nil pitfall: only assign the interface when a store exists.
	var hist jobs.History
	if db != nil {
		hist = history.NewStore(db)
	}

	jobSvc := jobs.NewService(registry, kvStore, artStore, hist, time.Duration(cfg.ResultTTL)*time.Second, log)

	return &Services{
		Registry: registry,
		Jobs:     jobSvc,
	}, nil
}
