package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/fitsync/internal/client/cli"
	"github.com/iudanet/fitsync/internal/client/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	version := fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit)

	if err := cli.Execute(context.Background(), iocli.NewStdio(), os.Args[1:], cli.WithVersion(version)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
