// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modelstore",
	Short: "Modelstore keeps versioned model graphs",
	Long: `Modelstore keeps versioned model graphs in a content-addressed object store.

Objects are immutable and keyed by the hash of their content. Commits record the root of a
model graph and their parent commits. Branches are named, mutable pointers to commits, which
only move forward along the commit history.

GME projects (.xme files) may be imported as a new commit on a branch.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		startMetrics()
	},
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addPersistentFlags(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigDefaults()
	if os.Getenv("MODELSTORE_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("MODELSTORE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.modelstore")
		viper.AddConfigPath("/etc/modelstore")
		viper.SetConfigName("modelstore")
	}

	viper.SetEnvPrefix("modelstore")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	config, err = newConfig()
	if err != nil {
		wrapFatalln("read config", err)
		return
	}
}
