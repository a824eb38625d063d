package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/reelfeed/reelfeed/cmd/reelfeed/accounts"
	"github.com/reelfeed/reelfeed/cmd/reelfeed/serve"
)

func main() {
	app := &cli.App{
		Name:  "reelfeed",
		Usage: "Authentication and feed backend",
		Commands: []*cli.Command{
			serve.Cmd(),
			accounts.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
