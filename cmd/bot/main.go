package main

import (
	"os"

	"github.com/Proton-105/parfum-bot/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
