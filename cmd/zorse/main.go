package main

import (
	"github.com/zorse-project/zorse/cmd/zorse/commands"
)

func main() {
	commands.Execute()
}
