package main

import (
	"os"

	"github.com/ledgerline/covtrace/cmd/covtrace/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
