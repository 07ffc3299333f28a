// Package main is the buildcheck command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/buildcheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
