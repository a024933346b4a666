// Copyright © 2018 One Concern

package cmd

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var branchUpdate = &cobra.Command{
	Use:   "update <name> <commit>",
	Short: "Move a branch forward",
	Long: `Move a branch to a new commit, which must descend from the current head.

With --expected, the update fails when the branch moved away from the expected head.
Without it, the update is based on the current head, and retried when another update wins the race.`,
	Example: `% modelstore branch update master '#3e23e8160039594a33894f6564e1b1348bbd7a00'`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		name := args[0]
		newHead, err := parseHash(args[1])
		if err != nil {
			wrapFatalln("invalid commit", err)
			return
		}
		var expected model.Hash
		if modelstoreFlags.branch.expected != "" {
			if expected, err = parseHash(modelstoreFlags.branch.expected); err != nil {
				wrapFatalln("invalid expected head", err)
				return
			}
		}

		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		if err = withRelay(ctx, s, name, func() error {
			return updateHead(ctx, s, name, newHead, expected, modelstoreFlags.branch.retries)
		}); err != nil {
			wrapFatalln("update branch", err)
			return
		}
	},
}

// updateHead moves a branch. With no expected head, stale reads are retried from the latest head.
func updateHead(ctx context.Context, s *stores, name string, newHead, expected model.Hash, retries uint64) error {
	retry := expected.IsZero()
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	return backoff.Retry(func() error {
		base := expected
		if retry {
			head, err := s.branches.Head(ctx, name)
			if err != nil {
				return backoff.Permanent(err)
			}
			base = head
		}

		err := s.branches.UpdateHead(ctx, name, newHead, base)
		switch {
		case err == nil:
			return nil
		case retry && errors.Is(err, branch.ErrStaleRead):
			s.l.Info("branch moved meanwhile: retrying", zap.String("branch", name), zap.Stringer("read", base))
			return err
		default:
			return backoff.Permanent(err)
		}
	}, policy)
}

func init() {
	addExpectedFlag(branchUpdate)
	addRetriesFlag(branchUpdate)
	branchCmd.AddCommand(branchUpdate)
}
