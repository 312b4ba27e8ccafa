package main

import "github.com/redartera/flytekit/apps/connectord/cmd"

func main() {
	cmd.Execute()
}
