// Copyright © 2018 One Concern

package cmd

import (
	"time"

	"github.com/oneconcern/modelstore/pkg/dlogger"
	"github.com/oneconcern/modelstore/pkg/importer"
	"github.com/oneconcern/modelstore/pkg/notify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	backendBadger  = "badger"
	backendLocalFS = "localfs"
	backendMemory  = "memory"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	Project string        `json:"project" yaml:"project" mapstructure:"project"`
	Updater string        `json:"updater,omitempty" yaml:"updater,omitempty" mapstructure:"updater"`
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Import  ImportConfig  `json:"import" yaml:"import" mapstructure:"import"`
	NATS    notify.NATS   `json:"nats" yaml:"nats" mapstructure:"nats"`
}

// StorageConfig selects the physical store
type StorageConfig struct {
	Backend  string `json:"backend" yaml:"backend" mapstructure:"backend"` // badger, localfs or memory
	Dir      string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" yaml:"compress" mapstructure:"compress"` // localfs only
}

// LogConfig sets the log level and encoding
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// MetricsConfig exposes prometheus metrics when an address is set
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" mapstructure:"addr"`
}

// ImportConfig tunes the importer
type ImportConfig struct {
	Checkpoint int           `json:"checkpoint" yaml:"checkpoint" mapstructure:"checkpoint"`
	Fanout     int           `json:"fanout" yaml:"fanout" mapstructure:"fanout"`
	Depth      int           `json:"depth" yaml:"depth" mapstructure:"depth"`
	Report     time.Duration `json:"report" yaml:"report" mapstructure:"report"`
}

func setConfigDefaults() {
	viper.SetDefault("project", "default")
	viper.SetDefault("storage.backend", backendBadger)
	viper.SetDefault("storage.dir", ".modelstore")
	viper.SetDefault("storage.compress", true)
	viper.SetDefault("log.level", dlogger.LogLevelInfo)
	viper.SetDefault("log.format", dlogger.FormatJSON)
	viper.SetDefault("import.checkpoint", importer.DefaultCheckpointEvery)
	viper.SetDefault("import.fanout", importer.DefaultFanOut)
	viper.SetDefault("import.depth", importer.DefaultMaxDepth)
	viper.SetDefault("import.report", importer.DefaultReportInterval)
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) importOptions() []importer.Option {
	return []importer.Option{
		importer.WithCheckpointEvery(c.Import.Checkpoint),
		importer.WithFanOut(c.Import.Fanout),
		importer.WithMaxDepth(c.Import.Depth),
		importer.WithReportInterval(c.Import.Report),
	}
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage the modelstore CLI config.

The config file is modelstore.yaml, searched in the current directory, then in $HOME/.modelstore and /etc/modelstore.
The MODELSTORE_CONFIG environment variable points to a specific file instead.

Every setting may be overridden by an environment variable, e.g. MODELSTORE_STORAGE_BACKEND for storage.backend.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
