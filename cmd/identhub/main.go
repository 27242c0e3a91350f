package main

import (
	"os"

	"identhub/cmd/identhub/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
