package db

import (
	"database/sql"
	"fmt"
	"time"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

// WriteBlock replaces the whole stored block.
func (n *NVRAM) WriteBlock(p []byte) error {
	tx, err := StartTransaction(n.db)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO nvram (id, block, updated_at) VALUES (1, ?, ?)`,
		p, time.Now().Format(time.RFC3339))
	if err != nil {
		RollbackTransaction(tx)
		return fmt.Errorf("write nvram block: %w", err)
	}
	return CommitTransaction(tx)
}

// Erase drops the stored block so the next read sees blank storage.
func (n *NVRAM) Erase() error {
	tx, err := StartTransaction(n.db)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM nvram WHERE id = 1`); err != nil {
		RollbackTransaction(tx)
		return fmt.Errorf("erase nvram block: %w", err)
	}
	return CommitTransaction(tx)
}
