// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/importer"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/xmldoc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type importResult struct {
	importer.Result `yaml:",inline"`

	Source model.Hash `json:"source" yaml:"source"`
	Commit model.Hash `json:"commit" yaml:"commit"`
	Branch string     `json:"branch" yaml:"branch"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.xme>",
	Short: "Import a GME project",
	Long: `Import a GME project exported as XME, and commit it on a branch.

The document is stored as is, then translated into a model graph. The root of the graph is
committed on top of the head of the branch, which is created when it does not exist.`,
	Example: `% modelstore import SignalFlow.xme --branch master -m "initial import"`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		f, err := os.Open(args[0])
		if err != nil {
			wrapFatalln("open project", err)
			return
		}
		defer f.Close()

		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		result, err := importProject(ctx, s, f, modelstoreFlags.imprt.branch, commitMessage(args[0]))
		if err != nil {
			wrapFatalln("import project", err)
			return
		}
		if err = printResult(cmd.OutOrStdout(), result, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s\t%s\t%d objects\n", result.Branch, result.Commit, result.Built)
			return err
		}); err != nil {
			wrapFatalln("print result", err)
		}
	},
}

func commitMessage(file string) string {
	if modelstoreFlags.imprt.message != "" {
		return modelstoreFlags.imprt.message
	}
	return "import " + filepath.Base(file)
}

func importProject(ctx context.Context, s *stores, r io.Reader, name, message string) (*importResult, error) {
	source, err := xmldoc.Load(ctx, s.core, r, xmldoc.WithLogger(s.l))
	if err != nil {
		return nil, err
	}

	opts := append(config.importOptions(), importer.WithLogger(s.l), importer.WithMetrics(cliMetrics()))
	imported, err := importer.New(s.core, opts...).Import(ctx, source)
	if err != nil {
		return nil, err
	}

	b, err := s.branches.Get(ctx, name)
	if errors.Is(err, branch.ErrBranchNotFound) {
		b, err = s.branches.Create(ctx, name)
	}
	if err != nil {
		return nil, err
	}

	var parents []model.Hash
	if !b.Head.IsZero() {
		parents = append(parents, b.Head)
	}
	commit, err := s.graph.CreateCommit(ctx, parents, imported.Root, message)
	if err != nil {
		return nil, err
	}

	if err = withRelay(ctx, s, name, func() error {
		return s.branches.UpdateHead(ctx, name, commit, b.Head)
	}); err != nil {
		return nil, err
	}
	s.l.Info("project imported", zap.String("branch", name), zap.Stringer("commit", commit), zap.String("run", imported.RunID))

	return &importResult{
		Result: *imported,
		Source: source,
		Commit: commit,
		Branch: name,
	}, nil
}

func init() {
	addOutputFlag(importCmd)
	addBranchFlag(importCmd, &modelstoreFlags.imprt.branch, model.DefaultBranch)
	addMessageFlag(importCmd, &modelstoreFlags.imprt.message, "")
	rootCmd.AddCommand(importCmd)
}
