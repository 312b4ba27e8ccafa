package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// MMCloud CLI backend
	MMCloudBin     string `envconfig:"MMCLOUD_BIN" default:"float"`
	MMCloudTimeout int    `envconfig:"MMCLOUD_TIMEOUT" default:"300"` // seconds

	// OpenAI batch backend
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAITimeout int    `envconfig:"OPENAI_TIMEOUT" default:"30"` // seconds

	// Kubernetes batch backend, off by default since it needs a kubeconfig
	K8sEnabled   bool   `envconfig:"K8S_ENABLED" default:"false"`
	K8sNamespace string `envconfig:"K8S_NAMESPACE" default:"default"`

	// Terminal result cache. Empty address falls back to in-process memory.
	ValkeyAddr string `envconfig:"VALKEY_ADDR"`
	ResultTTL  int    `envconfig:"RESULT_TTL" default:"86400"` // seconds

	// Submission history, disabled when DB_HOST is empty
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"flytekit"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"flytekit"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Artifact storage, disabled when S3_ENDPOINT is empty
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"connector-artifacts"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"false"`
}

func IsDev() bool {
	env := os.Getenv("ENVIRONMENT")
	return env == "" || env == "development"
}

func ValidateEnv() (*EnvConfig, error) {
	if IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var errors []string

	if cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		errors = append(errors, "  ❌ S3_ACCESS_KEY and S3_SECRET_KEY are required when S3_ENDPOINT is set")
	}

	if cfg.MMCloudBin == "" {
		errors = append(errors, "  ❌ MMCLOUD_BIN must not be empty")
	}

	if cfg.ResultTTL <= 0 {
		errors = append(errors, "  ❌ RESULT_TTL must be positive")
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return &cfg, nil
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  MMCloud CLI: %s (timeout %ds)\n", c.MMCloudBin, c.MMCloudTimeout)
	fmtr("  OpenAI API: %s\n", c.OpenAIBaseURL)

	if c.K8sEnabled {
		fmtr("  Kubernetes: ✓ Enabled (namespace: %s)\n", c.K8sNamespace)
	} else {
		fmtr("  Kubernetes: ✗ Disabled\n")
	}

	if c.ValkeyAddr != "" {
		fmtr("  Result cache: valkey %s (ttl %ds)\n", c.ValkeyAddr, c.ResultTTL)
	} else {
		fmtr("  Result cache: in-memory (ttl %ds)\n", c.ResultTTL)
	}

	if c.DBHost != "" {
		fmtr("  History: %s@%s:%d/%s (sslmode=%s)\n", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	} else {
		fmtr("  History: ✗ Disabled\n")
	}

	if c.S3Endpoint != "" {
		fmtr("  Artifacts: %s/%s (key %s)\n", c.S3Endpoint, c.S3Bucket, MaskSecret(c.S3AccessKey))
	} else {
		fmtr("  Artifacts: ✗ Disabled\n")
	}
}
