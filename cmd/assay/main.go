package main

import (
	"os"

	"github.com/assaylabs/assay/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
