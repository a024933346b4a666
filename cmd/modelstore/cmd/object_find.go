// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
)

var objectFind = &cobra.Command{
	Use:   "find <field=value>...",
	Short: "Find objects",
	Long: `Find the objects which top-level fields equal all the given values.

Values are parsed as JSON when possible (numbers, booleans, null), and taken as strings otherwise.`,
	Example: `% modelstore object find type=commit`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		criteria, err := parseCriteria(args)
		if err != nil {
			wrapFatalln("invalid criteria", err)
			return
		}
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		objects, err := s.objects.Find(ctx, criteria)
		if err != nil {
			wrapFatalln("find objects", err)
			return
		}
		if err = printObjects(cmd.OutOrStdout(), objects); err != nil {
			wrapFatalln("print objects", err)
		}
	},
}

var objectDump = &cobra.Command{
	Use:   "dump",
	Short: "Dump all objects",
	Long:  "Dump all the objects of the project, branch records included, followed by a summary.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		objects, err := s.objects.DumpAll(ctx)
		if err != nil {
			wrapFatalln("dump objects", err)
			return
		}
		if err = printObjects(cmd.OutOrStdout(), objects); err != nil {
			wrapFatalln("print objects", err)
			return
		}
		if modelstoreFlags.output != outputText {
			return
		}
		var size int
		for _, o := range objects {
			b, err := o.Encode()
			if err != nil {
				wrapFatalln("encode object", err)
				return
			}
			size += len(b)
		}
		infoLogger.Printf("%d objects, %s", len(objects), units.HumanSize(float64(size)))
	},
}

func parseCriteria(args []string) (map[string]interface{}, error) {
	criteria := make(map[string]interface{}, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		var value interface{}
		if err := model.Unmarshal([]byte(parts[1]), &value); err != nil {
			value = parts[1]
		}
		criteria[parts[0]] = value
	}
	return criteria, nil
}

// printObjects prints one object per line in the text format
func printObjects(out io.Writer, objects []model.DataObject) error {
	if limit := modelstoreFlags.object.limit; limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return printResult(out, objects, func(w io.Writer) error {
		for _, o := range objects {
			b, err := o.Encode()
			if err != nil {
				return err
			}
			if _, err = fmt.Fprintln(w, string(b)); err != nil {
				return err
			}
		}
		return nil
	})
}

func init() {
	addOutputFlag(objectFind)
	addObjectLimitFlag(objectFind)
	objectCmd.AddCommand(objectFind)

	addOutputFlag(objectDump)
	addObjectLimitFlag(objectDump)
	objectCmd.AddCommand(objectDump)
}
