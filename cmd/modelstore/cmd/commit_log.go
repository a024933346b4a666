// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
)

var commitLog = &cobra.Command{
	Use:   "log [<commit>]",
	Short: "Get commit history",
	Long: `Displays the history of a commit, newest first.

Without a commit, the history of the head of --branch is shown. With neither, the latest commits of the project are shown.`,
	Example: `% modelstore commit log --branch master -n 5`,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		var from model.Hash
		switch {
		case len(args) == 1:
			id, err := parseHash(args[0])
			if err != nil {
				wrapFatalln("invalid commit", err)
				return
			}
			from = id
		case modelstoreFlags.commit.branch != "":
			head, err := s.branches.Head(ctx, modelstoreFlags.commit.branch)
			if err != nil {
				wrapFatalln("get branch", err)
				return
			}
			if head.IsZero() {
				infoLogger.Printf("branch %q has no commit yet", modelstoreFlags.commit.branch)
				return
			}
			from = head
		}

		var (
			commits []*model.Commit
			err     error
		)
		if from.IsZero() {
			commits, err = s.graph.Commits(ctx, time.Now().Add(time.Minute), modelstoreFlags.commit.limit)
		} else {
			commits, err = s.graph.History(ctx, from, modelstoreFlags.commit.limit)
		}
		if err != nil {
			wrapFatalln("get history", err)
			return
		}

		if err = printResult(cmd.OutOrStdout(), commits, func(w io.Writer) error {
			for i, c := range commits {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printCommit(w, c)
			}
			return nil
		}); err != nil {
			wrapFatalln("print history", err)
		}
	},
}

func init() {
	addOutputFlag(commitLog)
	addCommitLimitFlag(commitLog)
	addBranchFlag(commitLog, &modelstoreFlags.commit.branch, "")
	commitCmd.AddCommand(commitLog)
}
