// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthinsure/internal/database"
)

// NewDB returns a migrated in-memory sqlite database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:", Logger())
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// Logger returns a logrus logger that discards output.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
