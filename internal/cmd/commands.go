package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd/base"
	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd/commands/migrate"
	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd/commands/version"
)

// Commands is the mapping of all available commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"migrate": func() (cli.Command, error) {
			return &migrate.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
