package infra

import (
	"errors"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

var mutex = &sync.Mutex{} // nolint

// Migrate applies every pending migration from source to the database at
// connStr. A dirty version is forced back one step and retried.
func Migrate(source string, connStr string) error {
	mutex.Lock()
	defer mutex.Unlock()

	zap.S().Infof("migrating from %s", source)

	mg, err := migrate.New(source, connStr)
	if err != nil {
		return err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}

	if dirty {
		if err := mg.Force(int(version) - 1); err != nil {
			return err
		}
	}

	err = mg.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, _, _ = mg.Version()
	zap.S().Infof("migration done, version %d", version)
	return nil
}
