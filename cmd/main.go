package main

import (
	"github.com/dyike/xagent/internal/cli"
)

func main() {
	cli.Run()
}
