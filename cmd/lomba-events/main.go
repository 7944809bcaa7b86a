package main

import (
	"os"

	"github.com/lombahub/lomba-events/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
