package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"healthinsure/internal/app"
	"healthinsure/internal/config"
	"healthinsure/internal/database"
	"healthinsure/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := app.NewLogger(cfg)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("db connect failed")
	}

	ctx := context.Background()
	cutoff := time.Now().AddDate(0, 0, -cfg.Notification.RetentionDays)

	read, err := repository.NewNotificationRepository(db).DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		log.WithError(err).Fatal("cleanup notification_histories failed")
	}

	dead, err := repository.NewOutboxRepository(db).DeleteDeadOlderThan(ctx, cutoff)
	if err != nil {
		log.WithError(err).Fatal("cleanup notification_outbox failed")
	}

	log.WithFields(logrus.Fields{
		"cutoff":             cutoff.Format(time.RFC3339),
		"read_notifications": read,
		"dead_outbox_rows":   dead,
	}).Info("notification cleanup completed")
}
