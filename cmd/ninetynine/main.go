package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the multiplayer WebSocket server"`
	Play     PlayCmd          `cmd:"" help:"Play against bots in the terminal"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only games and report win rates"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ninetynine"),
		kong.Description("The 99 card game: server, terminal client and bot simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
