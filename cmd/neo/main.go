// Command neo trains and applies the NEO hazard classifier.
package main

import (
	"os"

	"go-ml.dev/pkg/neo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
