package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "chat",
		Usage: "terminal client for the realtime chat backend",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "username to join as (CHAT_USERNAME)"},
			&cli.StringFlag{Name: "server", Usage: "websocket URL (CHAT_SERVER_URL)"},
			&cli.StringFlag{Name: "upload", Usage: "upload endpoint (CHAT_UPLOAD_URL)"},
			&cli.StringSliceFlag{Name: "room", Aliases: []string{"r"}, Usage: "room to list, repeatable (CHAT_ROOMS)"},
			&cli.StringFlag{Name: "transport", Usage: "ws or redis (CHAT_TRANSPORT)"},
			&cli.StringFlag{Name: "redis", Usage: "redis address (REDIS_ADDR)"},
			&cli.BoolFlag{Name: "no-notify", Usage: "disable desktop notifications"},
			&cli.BoolFlag{Name: "no-sound", Usage: "disable the message sound"},
			&cli.BoolFlag{Name: "debug", Usage: "log wire traffic"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("chat: %v", err)
	}
}
