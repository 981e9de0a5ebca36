package version

import (
	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd/base"
	"github.com/hmcts/finrem-ccd-data-migrator/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version of the binary"
}

func (c *Command) Help() string {
	return `Usage: ccd-migrate version

  This command prints the version of the binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
