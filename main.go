package main

import (
	"os"

	"github.com/plcscope/plcscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
