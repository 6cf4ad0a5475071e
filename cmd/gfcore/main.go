package main

import (
	"github.com/livp123/gfcore/cmd/gfcore/commands"
)

func main() {
	commands.Execute()
}
