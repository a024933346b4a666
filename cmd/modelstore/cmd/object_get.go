// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
)

var objectGet = &cobra.Command{
	Use:     "get <key>",
	Short:   "Get an object",
	Long:    "Get an object by its key. The object is verified against its key.",
	Example: `% modelstore object get '#3e23e8160039594a33894f6564e1b1348bbd7a00'`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		key, err := parseHash(args[0])
		if err != nil {
			wrapFatalln("invalid key", err)
			return
		}
		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		o, err := s.objects.Load(ctx, key)
		if err != nil {
			wrapFatalln("get object "+args[0], err)
			return
		}
		if err = printResult(cmd.OutOrStdout(), o, func(w io.Writer) error {
			return printObject(w, o)
		}); err != nil {
			wrapFatalln("print object", err)
		}
	},
}

func printObject(w io.Writer, o model.DataObject) error {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func init() {
	addOutputFlag(objectGet)
	objectCmd.AddCommand(objectGet)
}
