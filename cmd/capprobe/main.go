package main

import (
	"os"

	"github.com/veyrune/capprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
