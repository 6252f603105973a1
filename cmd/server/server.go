package main

import (
	"log"
	"os"
	"slices"

	"github.com/the-dev-tools/orderedmodel/cmd/serverrun"
	"github.com/the-dev-tools/orderedmodel/internal/config"
)

func main() {
	if slices.ContainsFunc(os.Args[1:], func(a string) bool { return a == "-h" || a == "--help" }) {
		config.PrintUsage(os.Stdout)
		return
	}
	if err := serverrun.Run(); err != nil {
		log.Fatal(err)
	}
}
