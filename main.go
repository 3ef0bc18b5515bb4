package main

import (
	"github.com/vborgne/urlshortener/cmd"

	// Blank imports so each subcommand can register itself on the root
	// command via its own init() function.
	_ "github.com/vborgne/urlshortener/cmd/cli"
	_ "github.com/vborgne/urlshortener/cmd/server"
)

func main() {
	cmd.Execute()
}
