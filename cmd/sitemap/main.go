package main

import (
	"fmt"
	"os"

	"github.com/romangod6/sitemap-gen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}
