package main

import (
	"os"

	"careplus/cmd/careplus/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
