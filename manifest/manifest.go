/*
Package manifest records which source images have been converted, with which
options, so unchanged images can be skipped on the next run.

Entries are keyed by source path and store the SHA-1 of the source file along
with a fingerprint of the options used to convert it.
*/
package manifest

import (
	"database/sql"
	"fmt"
	"time"

	// Registers the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// Entry describes one converted image.
type Entry struct {
	Source    string
	SHA1      string
	Options   string
	Image     string
	Width     int
	Height    int
	Size      int
	Stored    int
	Colors    int
	Overflows int
	Converted time.Time
}

// DB is the manifest database.
type DB struct {
	db *sql.DB
}

// Open opens, creating if necessary, the manifest database in file.
func Open(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, source TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL, options TEXT NOT NULL, image TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, size INTEGER NOT NULL, stored INTEGER NOT NULL, colors INTEGER NOT NULL, overflows INTEGER NOT NULL, converted INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

// Find returns the entry for source, or nil if there isn't one.
func (db *DB) Find(source string) (*Entry, error) {
	e := Entry{Source: source}
	var converted int64
	switch err := db.db.QueryRow("SELECT sha1, options, image, width, height, size, stored, colors, overflows, converted FROM conversion WHERE source = ?", source).Scan(&e.SHA1, &e.Options, &e.Image, &e.Width, &e.Height, &e.Size, &e.Stored, &e.Colors, &e.Overflows, &converted); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		e.Converted = time.Unix(converted, 0)
		return &e, nil
	default:
		return nil, err
	}
}

// Record stores e, replacing any existing entry for the same source.
func (db *DB) Record(e *Entry) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO conversion (source, sha1, options, image, width, height, size, stored, colors, overflows, converted) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", e.Source, e.SHA1, e.Options, e.Image, e.Width, e.Height, e.Size, e.Stored, e.Colors, e.Overflows, e.Converted.Unix()); err != nil {
		return err
	}
	return nil
}

// Forget removes the entry for source.
func (db *DB) Forget(source string) error {
	_, err := db.db.Exec("DELETE FROM conversion WHERE source = ?", source)
	return err
}

// Entries returns every entry ordered by source.
func (db *DB) Entries() ([]*Entry, error) {
	rows, err := db.db.Query("SELECT source, sha1, options, image, width, height, size, stored, colors, overflows, converted FROM conversion ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var converted int64
		if err := rows.Scan(&e.Source, &e.SHA1, &e.Options, &e.Image, &e.Width, &e.Height, &e.Size, &e.Stored, &e.Colors, &e.Overflows, &converted); err != nil {
			return nil, err
		}
		e.Converted = time.Unix(converted, 0)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
