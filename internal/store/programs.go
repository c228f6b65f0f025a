package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Program represents the broadcast content captured by one recording.
// Exactly one video row belongs to each program.
type Program struct {
	ID          int64
	ChannelID   string // empty when the recording carried no service info
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	Duration    float64 // seconds
}

const programColumns = `
	id, COALESCE(channel_id, ''), title, COALESCE(description, ''),
	start_time, end_time, duration
`

func scanProgram(row *sql.Row) (*Program, error) {
	p := &Program{}
	var start, end sql.NullTime
	err := row.Scan(&p.ID, &p.ChannelID, &p.Title, &p.Description, &start, &end, &p.Duration)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	p.StartTime = timePtr(start)
	p.EndTime = timePtr(end)
	return p, nil
}

// GetProgram retrieves a program by ID, or nil if absent
func (s *Store) GetProgram(id int64) (*Program, error) {
	row := s.db.QueryRow("SELECT "+programColumns+" FROM recorded_programs WHERE id = ?", id)
	return scanProgram(row)
}

// InsertProgramTx inserts a program within an open transaction and sets its ID
func InsertProgramTx(tx *sql.Tx, p *Program) error {
	result, err := tx.Exec(`
		INSERT INTO recorded_programs (channel_id, title, description, start_time, end_time, duration)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullString(p.ChannelID), p.Title, nullString(p.Description),
		nullTime(p.StartTime), nullTime(p.EndTime), p.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert program: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get program ID: %w", err)
	}
	p.ID = id
	return nil
}

// DeleteProgramTx deletes a program and its video within an open transaction.
// The video row is removed first so ownership stays explicit instead of
// leaning on the schema-level cascade. The referenced channel is left alone:
// other recordings may still point at it.
func DeleteProgramTx(tx *sql.Tx, programID int64) error {
	if _, err := tx.Exec("DELETE FROM recorded_videos WHERE program_id = ?", programID); err != nil {
		return fmt.Errorf("failed to delete video for program %d: %w", programID, err)
	}
	if _, err := tx.Exec("DELETE FROM recorded_programs WHERE id = ?", programID); err != nil {
		return fmt.Errorf("failed to delete program %d: %w", programID, err)
	}
	return nil
}

// DeleteAllPrograms removes every program and video from the catalog.
// Channels are preserved. This is the empty-configuration policy: no watched
// directories means no valid recordings.
func (s *Store) DeleteAllPrograms() error {
	return s.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM recorded_videos"); err != nil {
			return fmt.Errorf("failed to delete videos: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM recorded_programs"); err != nil {
			return fmt.Errorf("failed to delete programs: %w", err)
		}
		return nil
	})
}

// CountPrograms returns the number of program rows
func (s *Store) CountPrograms() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM recorded_programs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return count, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
