package cmd

import (
	"bufio"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hmcts/finrem-ccd-data-migrator/internal/version"
)

// defaultCommand runs when the binary is invoked without a subcommand.
const defaultCommand = "migrate"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	name := args[0]

	log := hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.Info,
	})
	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	initCommands(log, ui)

	c := &cli.CLI{
		Name:     name,
		Args:     subcommandArgs(args[1:]),
		Version:  version.Version,
		Commands: Commands,
	}

	exitCode, err := c.Run()
	if err != nil {
		log.Error("error running command", "error", err)
		return 1
	}
	return exitCode
}

// subcommandArgs maps the version shortcuts and an empty argument list to
// their subcommands.
func subcommandArgs(args []string) []string {
	switch {
	case len(args) == 0:
		return []string{defaultCommand}
	case len(args) == 1 && (args[0] == "-v" || args[0] == "-version"):
		return []string{"version"}
	}
	return args
}
