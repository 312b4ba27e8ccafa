package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/redartera/flytekit/apps/fconnect/cmd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fconnect crashed: %v\n", r)
			if os.Getenv("FCONNECT_DEBUG") != "" {
				debug.PrintStack()
			}
			os.Exit(2)
		}
	}()

	cmd.Execute()
}
