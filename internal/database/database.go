package database

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthinsure/internal/domain"

	_ "modernc.org/sqlite"
)

// Connect opens postgres for postgres:// DSNs and the pure-Go sqlite driver for anything else.
func Connect(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.WithField("dsn", dsn).Info("using SQLite for local development")

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	// sqlite serialises writers; a single connection avoids "database is locked" under the dispatcher.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Models lists every table owned by the API, in dependency order.
func Models() []any {
	return []any{
		&domain.Hospital{},
		&domain.InsurancePlan{},
		&domain.User{},
		&domain.Policy{},
		&domain.Claim{},
		&domain.Payment{},
		&domain.NotificationHistory{},
		&domain.NotificationOutbox{},
	}
}

func Migrate(db *gorm.DB, extra ...any) error {
	return db.AutoMigrate(append(Models(), extra...)...)
}
