package main

import (
	"autolrc/cmd"
)

func main() {
	cmd.Execute()
}
