package main

import (
	"os"

	"github.com/peter-kozarec/merchant/cmd/merchant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
