package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `CREATE TABLE IF NOT EXISTS nvram (
	id INTEGER PRIMARY KEY CHECK(id=1),
	block BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// NVRAM emulates a small EEPROM with a single-row SQLite table.
type NVRAM struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies the schema.
func Open(dbPath string) (*NVRAM, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	n, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("NVRAM database opened")
	return n, nil
}

// New wraps an existing connection and applies the schema.
func New(db *sql.DB) (*NVRAM, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply nvram schema: %w", err)
	}
	return &NVRAM{db: db}, nil
}

func (n *NVRAM) Close() error {
	return n.db.Close()
}
