package main

import (
	"github.com/habiliai/botruntime/cmd/botruntime/cmd"
)

func main() {
	cmd.Execute()
}
