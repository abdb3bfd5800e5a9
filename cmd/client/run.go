package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"client_go/internal/config"
	"client_go/internal/connection"
	"client_go/internal/domain"
	"client_go/internal/engine"
	"client_go/internal/focus"
	"client_go/internal/notify"
	"client_go/internal/transport/redisbus"
	"client_go/internal/transport/ws"
	"client_go/internal/upload"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Load()
	if c.IsSet("user") {
		cfg.Username = c.String("user")
	}
	if c.IsSet("server") {
		cfg.ServerURL = c.String("server")
	}
	if c.IsSet("upload") {
		cfg.UploadURL = c.String("upload")
	}
	if c.IsSet("room") {
		cfg.Rooms = c.StringSlice("room")
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if c.IsSet("redis") {
		cfg.RedisAddr = c.String("redis")
	}
	if c.Bool("no-notify") {
		cfg.Notifications = false
	}
	if c.Bool("no-sound") {
		cfg.Sound = false
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func newTransport(cfg *config.Config, logger *log.Logger) domain.Transport {
	if cfg.Transport == config.TransportRedis {
		return redisbus.New(redisbus.Options{
			Addr:       cfg.RedisAddr,
			Prefix:     cfg.RedisPrefix,
			Username:   cfg.Username,
			MaxRetries: cfg.ReconnectMaxRetries,
			BaseDelay:  cfg.ReconnectBaseDelay,
			Logger:     logger,
		})
	}
	return ws.New(ws.Options{
		URL:        cfg.ServerURL,
		MaxRetries: cfg.ReconnectMaxRetries,
		BaseDelay:  cfg.ReconnectBaseDelay,
		Logger:     logger,
	})
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	conn := connection.New(newTransport(cfg, logger), connection.Options{Logger: logger, Debug: cfg.Debug})
	defer conn.Close()

	idle := focus.NewIdle(domain.SystemClock{}, cfg.IdleAfter)
	defer idle.Close()

	desktop := notify.NewDesktop(cfg.Notifications, cfg.Sound, logger)
	ui := newTerminal(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))

	eng := engine.New(conn, engine.Options{
		Self:          cfg.Username,
		Rooms:         cfg.RoomList(),
		Notifier:      desktop,
		Sound:         desktop,
		Focus:         idle,
		TypingTimeout: cfg.TypingTimeout,
		OnUpdate:      ui.onUpdate,
		Logger:        logger,
		Debug:         cfg.Debug,
	})
	uploader := upload.New(upload.Options{URL: cfg.UploadURL, MaxBytes: cfg.MaxUploadBytes})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return conn.Connect(ctx, connection.Identity{Username: cfg.Username})
	})
	g.Go(func() error {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := ui.readInput(ctx, os.Stdin, &session{eng: eng, uploader: uploader, idle: idle})
		conn.Close()
		eng.Close()
		return err
	})

	ui.printf("joining as %s, /help for commands", cfg.Username)
	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
