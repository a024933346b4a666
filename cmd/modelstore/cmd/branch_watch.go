// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/notify"
	"github.com/spf13/cobra"
)

var branchWatch = &cobra.Command{
	Use:   "watch <name>",
	Short: "Watch the updates of a branch",
	Long: `Print the new head of a branch every time it is updated, until the branch is deleted.

Updates are received from the configured nats servers, on which writers publish them.`,
	Example: `% modelstore branch watch master --nats nats://localhost:4222`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if err := model.ValidateBranchName(name); err != nil {
			wrapFatalln("invalid branch", err)
			return
		}
		if len(config.NATS.URLs) == 0 {
			wrapFatalWithCodef(2, "watching a branch requires nats servers: use --nats")
			return
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if timeout := modelstoreFlags.branch.timeout; timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		nc, err := config.NATS.Connect()
		if err != nil {
			wrapFatalln("connect to nats", err)
			return
		}
		defer nc.Close()

		messages := make(chan *nats.Msg, 64)
		sub, err := nc.ChanSubscribe(notify.DefaultSubjectPrefix+"."+name, messages)
		if err != nil {
			wrapFatalln("subscribe", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-messages:
				var msg notify.Message
				if err := json.Unmarshal(raw.Data, &msg); err != nil {
					infoLogger.Println("skipping malformed message:", err)
					continue
				}
				if msg.Deleted {
					fmt.Fprintf(out, "%s\tdeleted\n", name)
					return
				}
				printBranch(out, msg.Branch())
			}
		}
	},
}

func init() {
	addTimeoutFlag(branchWatch)
	branchCmd.AddCommand(branchWatch)
}
