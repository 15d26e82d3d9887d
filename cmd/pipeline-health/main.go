package main

import (
	"os"

	"github.com/hiresphere/pipeline-health/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
