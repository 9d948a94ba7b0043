package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the decode cache schema from the migrations
// directory.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Entry
}

// NewMigrationRunner creates a runner reading .sql migrations from
// migrationsPath.
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migration source %s: %w", migrationsPath, err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger.WithField("component", "migrations"),
	}, nil
}

// Up applies all pending migrations.
func (mr *MigrationRunner) Up() error {
	if err := mr.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("Decode cache schema is up to date")
			return nil
		}
		return fmt.Errorf("applying schema migrations: %w", err)
	}

	mr.logVersion("Decode cache schema migrated")
	return nil
}

// Down rolls back the most recent migration. Rolling back drops the
// vin_cache table and its contents; this exists for operators, the server
// itself only migrates up.
func (mr *MigrationRunner) Down() error {
	if err := mr.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("No schema migrations to roll back")
			return nil
		}
		return fmt.Errorf("rolling back schema migration: %w", err)
	}

	mr.logVersion("Decode cache schema rolled back")
	return nil
}

// Version reports the current schema version. A bare database yields
// migrate.ErrNilVersion.
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}

func (mr *MigrationRunner) logVersion(msg string) {
	version, dirty, err := mr.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			mr.log.WithField("version", "none").Info(msg)
			return
		}
		mr.log.WithError(err).Warn("Could not read schema version")
		return
	}

	mr.log.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info(msg)
}

// Close releases the migration source and database handles.
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
