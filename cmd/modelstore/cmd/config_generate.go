package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var configGenerate = &cobra.Command{
	Use:   "generate",
	Short: "Generate a config",
	Long: `Generate a config from the current settings (defaults, config file, environment and flags).

The config is printed, unless --file is given.`,
	Example: `% modelstore config generate --backend localfs --dir /data/models --file $HOME/.modelstore/modelstore.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		// flags bound after initialization are taken into account
		c, err := newConfig()
		if err != nil {
			wrapFatalln("read config", err)
			return
		}
		o, err := yaml.Marshal(c)
		if err != nil {
			wrapFatalln("serialize config to yaml", err)
			return
		}
		if modelstoreFlags.config.file == "" {
			_, _ = cmd.OutOrStdout().Write(o)
			return
		}
		_ = os.MkdirAll(filepath.Dir(modelstoreFlags.config.file), 0o700)
		if err = os.WriteFile(modelstoreFlags.config.file, o, 0o600); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		infoLogger.Println("config written to", modelstoreFlags.config.file)
	},
}

func init() {
	addConfigFileFlag(configGenerate)
	configCmd.AddCommand(configGenerate)
}
