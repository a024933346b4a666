// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/spf13/cobra"
)

var objectPut = &cobra.Command{
	Use:   "put",
	Short: "Put an object",
	Long: `Put a JSON object read from stdin or from a file, and print its key.

An "_id" field, if any, must match the hash of the object.`,
	Example: `% echo '{"name": "ROOT"}' | modelstore object put
#6f5e6c3ad35b0e1c4cbf6b4c68b1ad9fb6d5e5f3`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		var in io.Reader = cmd.InOrStdin()
		if modelstoreFlags.object.file != "" {
			f, err := os.Open(modelstoreFlags.object.file)
			if err != nil {
				wrapFatalln("open object file", err)
				return
			}
			defer f.Close()
			in = f
		}
		data, err := io.ReadAll(in)
		if err != nil {
			wrapFatalln("read object", err)
			return
		}
		o, err := model.DecodeObject(data)
		if err != nil {
			wrapFatalln("decode object", err)
			return
		}

		s := mustOpenStores(ctx)
		if s == nil {
			return
		}
		defer s.Close()

		key, err := s.objects.Save(ctx, o)
		if err != nil {
			wrapFatalln("put object", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
	},
}

func init() {
	addObjectFileFlag(objectPut)
	objectCmd.AddCommand(objectPut)
}
