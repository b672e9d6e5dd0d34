package history

import (
	"database/sql"

	"codeberg.org/mutker/sysmond/internal/errors"
)

const insertEntrySQL = `
        INSERT INTO notifications (
            timestamp, title, message, urgency, stream
        ) VALUES (?, ?, ?, ?, ?)
    `

// initSchema initializes the database schema for notification history
func initSchema(db *sql.DB) error {
	errFactory := errors.New()

	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS notifications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp INTEGER NOT NULL,
            title TEXT NOT NULL,
            message TEXT NOT NULL,
            urgency TEXT NOT NULL,
            stream TEXT NOT NULL DEFAULT ''
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_timestamp
            ON notifications (timestamp)
    `)
	if err != nil {
		return errFactory.Wrap(ErrStorageInit, err)
	}

	return nil
}
