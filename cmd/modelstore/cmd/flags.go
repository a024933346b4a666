// Copyright © 2018 One Concern

package cmd

import (
	"time"

	"github.com/oneconcern/modelstore/pkg/dlogger"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type flagsT struct {
	output string
	object struct {
		file  string
		yes   bool
		limit int
	}
	commit struct {
		root    string
		parents []string
		message string
		limit   int
		branch  string
	}
	branch struct {
		head     string
		expected string
		retries  uint64
		timeout  time.Duration
	}
	imprt struct {
		branch  string
		message string
	}
	config struct {
		file string
	}
}

var modelstoreFlags = flagsT{}

// persistent flags are bound to config keys, so they override the config file and the environment
func addPersistentFlags(cmd *cobra.Command) {
	fls := cmd.PersistentFlags()
	fls.String("project", "default", "The project, i.e. the namespace of all keys in the store")
	fls.String("backend", backendBadger, "The storage backend: badger, localfs or memory")
	fls.String("dir", ".modelstore", "The storage directory (badger, localfs)")
	fls.String("log-level", dlogger.LogLevelInfo, "The logging level: none, error, warn, info or debug")
	fls.String("log-format", dlogger.FormatJSON, "The log encoding: json or console")
	fls.String("metrics-addr", "", "Expose prometheus metrics on this address, e.g. :9090")
	fls.StringSlice("nats", nil, "Publish branch updates to these nats servers")

	for key, flag := range map[string]string{
		"project":         "project",
		"storage.backend": "backend",
		"storage.dir":     "dir",
		"log.level":       "log-level",
		"log.format":      "log-format",
		"metrics.addr":    "metrics-addr",
		"nats.urls":       "nats",
	} {
		if err := viper.BindPFlag(key, fls.Lookup(flag)); err != nil {
			logFatalln(err)
		}
	}
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.Flags().StringVarP(&modelstoreFlags.output, output, "o", outputText, "Output format: text, json or yaml")
	return output
}

func addObjectFileFlag(cmd *cobra.Command) string {
	file := "file"
	cmd.Flags().StringVarP(&modelstoreFlags.object.file, file, "f", "", "Read the object from this file instead of stdin")
	return file
}

func addYesFlag(cmd *cobra.Command) string {
	yes := "yes"
	cmd.Flags().BoolVar(&modelstoreFlags.object.yes, yes, false, "Confirm a destructive operation")
	return yes
}

func addObjectLimitFlag(cmd *cobra.Command) string {
	limit := "limit"
	cmd.Flags().IntVar(&modelstoreFlags.object.limit, limit, 0, "Stop after this many objects (0: no limit)")
	return limit
}

func addRootFlag(cmd *cobra.Command) string {
	root := "root"
	cmd.Flags().StringVar(&modelstoreFlags.commit.root, root, "", "The hash of the root object of the commit")
	return root
}

func addParentFlag(cmd *cobra.Command) string {
	parent := "parent"
	cmd.Flags().StringSliceVar(&modelstoreFlags.commit.parents, parent, nil, "The parent commits (repeatable)")
	return parent
}

func addMessageFlag(cmd *cobra.Command, target *string, def string) string {
	message := "message"
	cmd.Flags().StringVarP(target, message, "m", def, "The commit message")
	return message
}

func addCommitLimitFlag(cmd *cobra.Command) string {
	limit := "limit"
	cmd.Flags().IntVarP(&modelstoreFlags.commit.limit, limit, "n", 20, "The maximum number of commits to show")
	return limit
}

func addBranchFlag(cmd *cobra.Command, target *string, def string) string {
	branch := "branch"
	cmd.Flags().StringVarP(target, branch, "b", def, "The branch name")
	return branch
}

func addHeadFlag(cmd *cobra.Command) string {
	head := "head"
	cmd.Flags().StringVar(&modelstoreFlags.branch.head, head, "", "The initial head commit of the branch")
	return head
}

func addExpectedFlag(cmd *cobra.Command) string {
	expected := "expected"
	cmd.Flags().StringVar(&modelstoreFlags.branch.expected, expected, "",
		"The head the update is based on. When not set, the current head is used and stale reads are retried")
	return expected
}

func addRetriesFlag(cmd *cobra.Command) string {
	retries := "retries"
	cmd.Flags().Uint64Var(&modelstoreFlags.branch.retries, retries, 5, "The maximum number of retries after a stale read")
	return retries
}

func addTimeoutFlag(cmd *cobra.Command) string {
	timeout := "timeout"
	cmd.Flags().DurationVar(&modelstoreFlags.branch.timeout, timeout, 0, "Stop watching after this duration (0: no timeout)")
	return timeout
}

func addConfigFileFlag(cmd *cobra.Command) string {
	file := "file"
	cmd.Flags().StringVarP(&modelstoreFlags.config.file, file, "f", "", "Write the config to this file")
	return file
}

func parseHash(s string) (model.Hash, error) {
	h := model.Hash(s)
	if err := h.Validate(); err != nil {
		return "", err
	}
	return h, nil
}
