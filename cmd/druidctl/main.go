// Package main is the entry point for the druidctl binary.
package main

import (
	"os"

	"druid-connect/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
