package main

import (
	"fmt"
	"os"

	"github.com/codexautotest/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := cmd.NewApp(version)

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
