// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var objectRemove = &cobra.Command{
	Use:   "remove <key>...",
	Short: "Remove objects",
	Long: `Remove objects by key. Removing a missing object is not an error.

Objects are not reference counted: removing an object still referred to breaks the history.`,
	Aliases: []string{"rm"},
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		for _, key := range args {
			if err := s.objects.Remove(ctx, key); err != nil {
				wrapFatalln("remove object "+key, err)
				return
			}
		}
	},
}

var objectClear = &cobra.Command{
	Use:   "clear",
	Short: "Remove all objects",
	Long:  "Remove all objects of the project, branch records included.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !modelstoreFlags.object.yes {
			wrapFatalWithCodef(2, "clear removes all objects of project %q: confirm with --yes", config.Project)
			return
		}
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		if err := s.objects.RemoveAll(ctx); err != nil {
			wrapFatalln("clear objects", err)
			return
		}
	},
}

var objectFsync = &cobra.Command{
	Use:   "fsync",
	Short: "Flush the store to disk",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		if err := s.objects.Fsync(ctx); err != nil {
			wrapFatalln("fsync", err)
			return
		}
	},
}

func init() {
	objectCmd.AddCommand(objectRemove)

	addYesFlag(objectClear)
	objectCmd.AddCommand(objectClear)

	objectCmd.AddCommand(objectFsync)
}
