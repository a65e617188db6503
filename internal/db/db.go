package db

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDatabaseURL = errors.New("database url is not set")

// Open connects to Postgres. Query logging stays silent; errors surface
// through the callers.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrNoDatabaseURL
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate runs GORM auto-migrations for the catalog tables. cmd/migrate is
// the versioned path; this keeps a fresh dev database usable.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&QuestionSet{},
		&Question{},
		&PlayerArchive{},
		&Branding{},
	); err != nil {
		return err
	}
	log.Info().Msg("database migration complete")
	return nil
}
