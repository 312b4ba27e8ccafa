package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/redartera/flytekit/pkg/openaibatch"
)

type Config struct {
	MMCloudBin     string `mapstructure:"mmcloudBin"`
	MMCloudTimeout int    `mapstructure:"mmcloudTimeout"`
	OpenAIBaseURL  string `mapstructure:"openaiBaseUrl"`
	K8sNamespace   string `mapstructure:"k8sNamespace"`

	v *viper.Viper // instance-specific viper
}

const (
	EnvPrefix  = "FCONNECT"
	ConfigRoot = ".fconnect"

	mmcloudBinKey     = "mmcloudBin"
	mmcloudTimeoutKey = "mmcloudTimeout"
	openaiBaseUrlKey  = "openaiBaseUrl"
	k8sNamespaceKey   = "k8sNamespace"
)

// LoadConfig creates a new Config instance with its own viper
// This is the only way to load config (no global state)
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		// Load project config (TRACKED) - fconnect.yaml in current directory
		for _, name := range []string{"fconnect.yaml", "fconnect.yml", ".fconnect.yaml"} {
			if _, err := os.Stat(name); err == nil {
				v.SetConfigFile(name)
				if err := v.ReadInConfig(); err == nil {
					break
				}
			}
		}

		// Merge local overrides (UNTRACKED) - .fconnect/config.yaml
		localConfigPath := filepath.Join(ConfigRoot, "config.yaml")
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("merging local config: %w", err)
			}
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.v = v
	return &cfg, nil
}

// Viper returns the underlying viper instance
// Useful for advanced config operations
func (c *Config) Viper() *viper.Viper {
	return c.v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(mmcloudBinKey, "float")
	v.SetDefault(mmcloudTimeoutKey, 300)
	v.SetDefault(openaiBaseUrlKey, openaibatch.DefaultBaseURL)
	v.SetDefault(k8sNamespaceKey, "default")
}
