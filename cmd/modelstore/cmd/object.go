// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

// objectCmd represents the object related commands
var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Commands to manage objects",
	Long: `Commands to manage the objects of a project.

Objects are JSON documents. An object is stored under the hash of its canonical serialization,
and is verified against its key when it is loaded.`,
}

func init() {
	rootCmd.AddCommand(objectCmd)
}
