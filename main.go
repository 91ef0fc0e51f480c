package main

import (
	"os"

	"github.com/mucollege/dispatchtrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
