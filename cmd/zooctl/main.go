package main

import (
	"os"

	"github.com/kungfuzoo/zoo/cmd/zooctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
