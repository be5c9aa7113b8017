package main

import (
	"os"

	"github.com/rinsr/dashboard/cmd/dashboard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
