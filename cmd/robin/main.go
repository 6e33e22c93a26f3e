// The program robin hosts diagnostic tooling for the Robin dispatch
// engine. Its demo subcommand admits a small in-process sample library
// through the registration table format and dispatches a handful of
// overloaded calls, printing each call and its result.
package main

import (
	"context"
	"os"
	"path"

	"flag"
	"github.com/golang/glog"
	"github.com/google/subcommands"
)

func main() {
	ctx := context.Background()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "working with this tool")
	commander.Register(commander.FlagsCommand(), "working with this tool")
	commander.Register(&versionCmd{}, "working with this tool")

	commander.Register(&demoCmd{}, "exercising the engine")

	flag.Usage = func() {
		commander.HelpCommand().Execute(ctx, flag.CommandLine)
	}
	flag.Parse()

	code := int(commander.Execute(ctx))
	glog.Flush()
	os.Exit(code)
}
