package main

import (
	"os"

	"kaari_back_end/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
