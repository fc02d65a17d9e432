package main

import (
	"os"

	"github.com/tallyworks/crypto-cgt-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
