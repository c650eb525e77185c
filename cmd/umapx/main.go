package main

import (
	"os"

	"github.com/TrevorS/umap/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
