package main

import (
	"os"

	"github.com/samirrijal/mapart/cmd/mapart/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
