package store

import (
	"database/sql"
	"fmt"
)

// Channel represents a broadcast source.
// Its lifetime is independent of the recordings that reference it.
type Channel struct {
	ID          string
	Name        string
	Type        string
	NetworkID   int
	ServiceID   int
	RemoconID   int
	IsWatchable bool
}

const channelColumns = `
	id, name, COALESCE(type, ''),
	COALESCE(network_id, 0), COALESCE(service_id, 0), COALESCE(remocon_id, 0),
	is_watchable
`

func scanChannel(row *sql.Row) (*Channel, error) {
	c := &Channel{}
	err := row.Scan(&c.ID, &c.Name, &c.Type, &c.NetworkID, &c.ServiceID, &c.RemoconID, &c.IsWatchable)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return c, nil
}

// GetChannel retrieves a channel by its stable identity, or nil if absent
func (s *Store) GetChannel(id string) (*Channel, error) {
	row := s.db.QueryRow("SELECT "+channelColumns+" FROM channels WHERE id = ?", id)
	return scanChannel(row)
}

// GetChannelTx retrieves a channel within an open transaction, or nil if absent
func GetChannelTx(tx *sql.Tx, id string) (*Channel, error) {
	row := tx.QueryRow("SELECT "+channelColumns+" FROM channels WHERE id = ?", id)
	return scanChannel(row)
}

// InsertChannelTx inserts a channel within an open transaction.
// A concurrent worker may have inserted the same identity between our lookup
// and this insert; OR IGNORE resolves that race to a reuse instead of an error.
func InsertChannelTx(tx *sql.Tx, c *Channel) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO channels
			(id, name, type, network_id, service_id, remocon_id, is_watchable)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, nullString(c.Type),
		nullInt(c.NetworkID), nullInt(c.ServiceID), nullInt(c.RemoconID), c.IsWatchable)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

// CountChannels returns the number of channel rows
func (s *Store) CountChannels() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM channels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count channels: %w", err)
	}
	return count, nil
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
