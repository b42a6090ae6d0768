package main

import (
	"os"

	"github.com/luxfi/paractl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}