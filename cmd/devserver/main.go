// Command devserver runs the in-process chat backend for local use of the
// client without the real service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"client_go/internal/fakebackend"
)

func main() {
	app := &cli.App{
		Name:  "devserver",
		Usage: "local chat backend for trying the client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:5000", EnvVars: []string{"DEV_ADDR"}},
			&cli.StringFlag{Name: "uploads", Value: "uploads", EnvVars: []string{"UPLOAD_DIR"}},
			&cli.StringFlag{Name: "cors", Value: "*", EnvVars: []string{"CORS_ORIGINS"}},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("devserver: %v", err)
	}
}

func serve(c *cli.Context) error {
	dir := c.String("uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	origins := strings.Split(c.String("cors"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	backend := fakebackend.NewServer(fakebackend.Config{
		UploadDir:   dir,
		CORSOrigins: origins,
		Logger:      log.Default(),
	})

	srv := &http.Server{
		Addr:        c.String("addr"),
		Handler:     backend.Handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Starting chat dev server on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
