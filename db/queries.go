package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ReadBlock fills p from the stored block. Missing rows and short blocks read
// as erased storage (0xFF).
func (n *NVRAM) ReadBlock(p []byte) error {
	for i := range p {
		p[i] = 0xFF
	}

	var block []byte
	err := n.db.QueryRow(`SELECT block FROM nvram WHERE id = 1`).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read nvram block: %w", err)
	}

	copy(p, block)
	return nil
}

// LastWrite returns when the block was last written.
func (n *NVRAM) LastWrite() (time.Time, error) {
	var updatedAt string
	err := n.db.QueryRow(`SELECT updated_at FROM nvram WHERE id = 1`).Scan(&updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("query nvram updated_at: %w", err)
	}
	return time.Parse(time.RFC3339, updatedAt)
}
