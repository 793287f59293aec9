package main

import (
	"os"

	"github.com/openclinic/medrec/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
