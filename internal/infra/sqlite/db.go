package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens the database at dsn and creates every table the bot uses.
// One connection is kept so writers never contend for the file lock.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	for _, m := range []func(*sql.DB) error{migrateApplications, migrateFunnel, migrateUsers, migrateBroadcastStat} {
		if err := m(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite %s: %w", dsn, err)
		}
	}
	return db, nil
}
