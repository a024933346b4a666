// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
)

// commitCmd represents the commit related commands
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commands to manage commits",
	Long: `Commands to manage commits.

A commit records the root object of a model graph and its parent commits.
Commits are immutable: their key is the hash of their content.`,
}

var commitCreate = &cobra.Command{
	Use:     "create",
	Short:   "Create a commit",
	Long:    "Create a commit and print its key. Parents must be existing commits.",
	Example: `% modelstore commit create --root '#6f5e...' --parent '#3e23...' -m "second version"`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		root, err := parseHash(modelstoreFlags.commit.root)
		if err != nil {
			wrapFatalln("invalid root", err)
			return
		}
		parents := make([]model.Hash, 0, len(modelstoreFlags.commit.parents))
		for _, p := range modelstoreFlags.commit.parents {
			parent, err := parseHash(p)
			if err != nil {
				wrapFatalln("invalid parent", err)
				return
			}
			parents = append(parents, parent)
		}

		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		id, err := s.graph.CreateCommit(ctx, parents, root, modelstoreFlags.commit.message)
		if err != nil {
			wrapFatalln("create commit", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	},
}

var commitShow = &cobra.Command{
	Use:   "show <commit>",
	Short: "Show a commit",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id, err := parseHash(args[0])
		if err != nil {
			wrapFatalln("invalid commit", err)
			return
		}
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		c, err := s.graph.Load(ctx, id)
		if err != nil {
			wrapFatalln("load commit", err)
			return
		}
		if err = printResult(cmd.OutOrStdout(), c, func(w io.Writer) error {
			printCommit(w, c)
			return nil
		}); err != nil {
			wrapFatalln("print commit", err)
		}
	},
}

func printCommit(w io.Writer, c *model.Commit) {
	fmt.Fprintln(w, "     ID: ", color.MagentaString(c.ID.String()))
	fmt.Fprintln(w, "   Root: ", c.Root)
	if !c.IsRoot() {
		parents := make([]string, 0, len(c.Parents))
		for _, p := range c.Parents {
			parents = append(parents, p.String())
		}
		fmt.Fprintln(w, "Parents: ", strings.Join(parents, ", "))
	}
	if len(c.Updater) > 0 {
		fmt.Fprintln(w, "Authors: ", color.YellowString(strings.Join(c.Updater, ", ")))
	}
	fmt.Fprintln(w, "   Date: ", color.YellowString(c.Timestamp().Format(time.RFC3339)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   ", c.Message)
}

func init() {
	addRootFlag(commitCreate)
	addParentFlag(commitCreate)
	addMessageFlag(commitCreate, &modelstoreFlags.commit.message, "")
	if err := commitCreate.MarkFlagRequired("root"); err != nil {
		logFatalln(err)
	}
	commitCmd.AddCommand(commitCreate)

	addOutputFlag(commitShow)
	commitCmd.AddCommand(commitShow)

	rootCmd.AddCommand(commitCmd)
}
