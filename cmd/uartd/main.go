package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/uartlink/pkg/env"
	"github.com/robotalks/uartlink/pkg/framework"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.MustNewConfig().MustNewEnv()
	// closing the link unblocks pending reads on shutdown.
	runner := framework.NewRunner().OnStop(e).HandleSignals()
	runner.Go(framework.NamedRun("loop", framework.NewLoop().Add(e)))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
