package main

import (
	"bandicli/internal/cli"
)

func main() {
	cli.Main()
}
