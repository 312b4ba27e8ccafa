package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/redartera/flytekit/pkg/artifacts"
	"github.com/redartera/flytekit/pkg/capi"
	"github.com/redartera/flytekit/pkg/capi/config"
	"github.com/redartera/flytekit/pkg/capi/routes"
	"github.com/redartera/flytekit/pkg/capi/services"
	"github.com/redartera/flytekit/pkg/flog"
	"github.com/redartera/flytekit/pkg/history"
	"github.com/redartera/flytekit/pkg/kv"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the connector service",
	Run:   run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg, err := config.ValidateEnv()
	if err != nil {
		log.Fatalf("❌ %v\n", err)
	}

	cfg.Print(log.Printf)

	logger := flog.NewDefault()

	var database *bun.DB
	if cfg.DBHost != "" {
		database, err = history.Connect(ctx, history.Config{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatalf("failed to initialize database: %v", err)
		}
		defer database.Close()

		if err := history.NewStore(database).Init(ctx); err != nil {
			log.Fatalf("failed to initialize history table: %v", err)
		}
	}

	var kvStore kv.Store
	if cfg.ValkeyAddr != "" {
		kvStore, err = kv.NewValkeyStore(kv.ValkeyConfig{Addr: cfg.ValkeyAddr})
		if err != nil {
			log.Fatalf("failed to connect to valkey: %v", err)
		}
	} else {
		kvStore = kv.NewMemoryStore()
	}
	defer kvStore.Close()

	var artStore artifacts.Store
	if cfg.S3Endpoint != "" {
		s3, err := artifacts.NewS3Store(artifacts.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatalf("failed to initialize artifact store: %v", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatalf("failed to ensure artifact bucket: %v", err)
		}
		artStore = s3
	}

	svcs, err := services.NewServices(cfg, database, kvStore, artStore, logger)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}

	api := capi.NewApi()
	routes.RegisterAPI(api.Api, svcs)

	addr := fmt.Sprintf(":%s", cfg.Port)

	log.Printf("🚀 Connector service starting on %s\n", addr)
	log.Printf("   Connectors: %v\n", svcs.Registry.Names())
	log.Printf("📚 OpenAPI docs: http://localhost%s/docs\n", addr)

	if err := http.ListenAndServe(addr, api.Router); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
