package main

import (
	"os"

	"github.com/gonkalabs/safedata/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
