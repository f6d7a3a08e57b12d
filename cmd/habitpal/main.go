package main

import (
	"os"

	"github.com/lazypower/habitpal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
