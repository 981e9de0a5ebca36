package main

import (
	"os"

	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
