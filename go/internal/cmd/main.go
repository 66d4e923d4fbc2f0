package main

import (
	"os"

	"github.com/mcdev12/twinflash/go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
