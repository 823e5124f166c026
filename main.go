package main

import (
	"os"

	"github.com/anrusu/fueldist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
