package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/fitsync/internal/server/command"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	version := fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit)

	if err := command.Execute(context.Background(), os.Stdout, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
