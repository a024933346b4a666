// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/modelstore/cmd/modelstore/cmd"
)

func main() {
	cmd.Execute()
}
