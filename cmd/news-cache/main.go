package main

import (
	"os"

	"github.com/scalewithchintan/news-cache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
