package main

import (
	"os"

	"github.com/cloudsleuth/cloudsleuth/cmd/cloudsleuth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
