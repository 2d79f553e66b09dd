package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/meenmo/fixedincome/cmd/fixedincome/internal/cli"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	os.Exit(cli.Execute(os.Args[1:], os.Stdin, os.Stdout, log.Logger))
}
