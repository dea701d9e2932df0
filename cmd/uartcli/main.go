package main

import (
	"github.com/robotalks/uartlink/pkg/cli/sh"
	"github.com/robotalks/uartlink/pkg/env"

	_ "github.com/robotalks/uartlink/pkg/cli/cmds/led"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
