package main

import (
	"os"

	"github.com/SimonDaKappa/go-nacc/cmd/redcap2nacc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
