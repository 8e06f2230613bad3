package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"healthinsure/internal/app"
	"healthinsure/internal/config"
	"healthinsure/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := app.NewLogger(cfg)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("database connect")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("database migrate")
	}

	a, err := app.New(cfg, db, log)
	if err != nil {
		log.WithError(err).Fatal("build app")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
