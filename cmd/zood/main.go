package main

import (
	"os"

	"github.com/kungfuzoo/zoo/cmd/zood/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
