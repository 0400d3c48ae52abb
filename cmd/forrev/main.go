package main

import (
	"os"

	"github.com/forrev/forrev-cli/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
