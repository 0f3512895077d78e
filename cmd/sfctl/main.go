package main

import (
	"os"

	"github.com/blues/smartfarmer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
