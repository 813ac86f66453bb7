package main

import (
	"os"

	"github.com/aptprep/aptprep/cmd"
)

func main() {
	os.Exit(cmd.Run(cmd.RootCommand(), os.Args[1:]))
}
