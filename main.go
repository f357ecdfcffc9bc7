package main

import (
	"os"

	"github.com/macrodoc/macrodoc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
