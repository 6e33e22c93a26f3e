package main

import (
	"context"
	"fmt"
	"runtime/debug"

	"flag"
	"github.com/google/subcommands"
)

// versionCmd implements the version subcommand.
type versionCmd struct{}

// Name implements subcommands.Command.
func (*versionCmd) Name() string { return "version" }

// Synopsis implements subcommands.Command.
func (*versionCmd) Synopsis() string { return "print tool version" }

// Usage implements subcommands.Command.
func (*versionCmd) Usage() string { return `Usage: robin version` }

// SetFlags implements subcommands.Command.
func (*versionCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.
func (*versionCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Println("robin (unknown)")
		return subcommands.ExitSuccess
	}
	version := info.Main.Version
	if version == "" {
		version = "(devel)"
	}
	fmt.Printf("robin %s\n", version)
	return subcommands.ExitSuccess
}
