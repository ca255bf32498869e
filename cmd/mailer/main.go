package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/renorris/cs496-todo-app/internal/app"
	"github.com/renorris/cs496-todo-app/internal/config"
	"github.com/renorris/cs496-todo-app/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "text", "error").Error(context.Background(), "load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("process", "mailer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMailer(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error(ctx, "mailer exited", "error", err)
		os.Exit(1)
	}
}
