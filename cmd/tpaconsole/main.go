package main

import (
	"os"

	"github.com/solatis/tpaconsole/cmd/tpaconsole/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
