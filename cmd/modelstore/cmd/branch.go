// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/notify"
	"github.com/spf13/cobra"
)

// branchCmd represents the branch related commands
var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Commands to manage branches",
	Long: `Commands to manage branches.

A branch is a named pointer to a commit. A branch only moves forward: its new head must descend from its current head.

When nats servers are configured, branch updates are published on the subject modelstore.branches.<name>.`,
}

var branchCreate = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a branch",
	Long:  "Create a branch, with no commit or pointing to an existing commit. Branch names use letters, digits and underscores.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		var opts []branch.CreateOption
		if modelstoreFlags.branch.head != "" {
			head, err := parseHash(modelstoreFlags.branch.head)
			if err != nil {
				wrapFatalln("invalid head", err)
				return
			}
			opts = append(opts, branch.WithHead(head))
		}
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		b, err := s.branches.Create(ctx, args[0], opts...)
		if err != nil {
			wrapFatalln("create branch", err)
			return
		}
		printBranch(cmd.OutOrStdout(), b)
	},
}

var branchList = &cobra.Command{
	Use:     "list",
	Short:   "List branches",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		branches, err := s.branches.List(ctx)
		if err != nil {
			wrapFatalln("list branches", err)
			return
		}
		if err = printResult(cmd.OutOrStdout(), branches, func(w io.Writer) error {
			table := uitable.New()
			table.AddRow("NAME", "HEAD")
			for _, b := range branches {
				table.AddRow(b.Name, headString(b.Head))
			}
			_, err := fmt.Fprintln(w, table)
			return err
		}); err != nil {
			wrapFatalln("print branches", err)
		}
	},
}

var branchGet = &cobra.Command{
	Use:   "get <name>",
	Short: "Get the head of a branch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		b, err := s.branches.Get(ctx, args[0])
		if err != nil {
			wrapFatalln("get branch", err)
			return
		}
		if err = printResult(cmd.OutOrStdout(), b, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, headString(b.Head))
			return err
		}); err != nil {
			wrapFatalln("print branch", err)
		}
	},
}

var branchDelete = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a branch",
	Long:    "Delete a branch. Commits are left untouched.",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		name := args[0]
		if err := withRelay(ctx, s, name, func() error {
			return s.branches.Delete(ctx, name)
		}); err != nil {
			wrapFatalln("delete branch", err)
			return
		}
	},
}

func headString(h model.Hash) string {
	if h.IsZero() {
		return "-"
	}
	return h.String()
}

func printBranch(w io.Writer, b model.Branch) {
	fmt.Fprintf(w, "%s\t%s\n", b.Name, headString(b.Head))
}

// withRelay runs an update of a branch, publishing the resulting event when nats servers are configured
func withRelay(ctx context.Context, s *stores, name string, update func() error) error {
	if len(config.NATS.URLs) == 0 {
		return update()
	}

	nc, err := config.NATS.Connect()
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Close()

	relay := notify.New(s.branches, nc, notify.WithLogger(s.l))
	defer relay.Close()
	if err = relay.Watch(ctx, name); err != nil {
		return err
	}
	if err = update(); err != nil {
		return err
	}
	return nc.Flush()
}

func init() {
	addHeadFlag(branchCreate)
	branchCmd.AddCommand(branchCreate)

	addOutputFlag(branchList)
	branchCmd.AddCommand(branchList)

	addOutputFlag(branchGet)
	branchCmd.AddCommand(branchGet)

	branchCmd.AddCommand(branchDelete)

	rootCmd.AddCommand(branchCmd)
}
