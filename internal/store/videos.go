package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Video represents one on-disk recording file and its technical attributes.
// Each video is exclusively owned by one program.
type Video struct {
	ID                 int64
	ProgramID          int64
	FilePath           string
	FileHash           string
	FileSize           int64
	RecordingStartTime *time.Time
	RecordingEndTime   *time.Time
	Duration           float64 // seconds

	ContainerFormat       string
	VideoCodec            string
	VideoResolutionWidth  int
	VideoResolutionHeight int

	PrimaryAudioCodec        string
	PrimaryAudioChannel      string
	PrimaryAudioSamplingRate int

	SecondaryAudioCodec        string
	SecondaryAudioChannel      string
	SecondaryAudioSamplingRate int

	// CMSections holds [start, end] second pairs believed to be commercial
	// breaks. Accepted from the extractor as-is, never validated here.
	CMSections [][2]float64
}

const videoColumns = `
	id, program_id, file_path, file_hash, file_size,
	recording_start_time, recording_end_time, duration,
	COALESCE(container_format, ''), COALESCE(video_codec, ''),
	COALESCE(video_resolution_width, 0), COALESCE(video_resolution_height, 0),
	COALESCE(primary_audio_codec, ''), COALESCE(primary_audio_channel, ''),
	COALESCE(primary_audio_sampling_rate, 0),
	COALESCE(secondary_audio_codec, ''), COALESCE(secondary_audio_channel, ''),
	COALESCE(secondary_audio_sampling_rate, 0),
	cm_sections
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*Video, error) {
	v := &Video{}
	var start, end sql.NullTime
	var cmJSON string
	err := row.Scan(
		&v.ID, &v.ProgramID, &v.FilePath, &v.FileHash, &v.FileSize,
		&start, &end, &v.Duration,
		&v.ContainerFormat, &v.VideoCodec,
		&v.VideoResolutionWidth, &v.VideoResolutionHeight,
		&v.PrimaryAudioCodec, &v.PrimaryAudioChannel, &v.PrimaryAudioSamplingRate,
		&v.SecondaryAudioCodec, &v.SecondaryAudioChannel, &v.SecondaryAudioSamplingRate,
		&cmJSON,
	)
	if err != nil {
		return nil, err
	}
	v.RecordingStartTime = timePtr(start)
	v.RecordingEndTime = timePtr(end)
	if err := json.Unmarshal([]byte(cmJSON), &v.CMSections); err != nil {
		return nil, fmt.Errorf("failed to decode cm_sections: %w", err)
	}
	return v, nil
}

// GetVideoByPath retrieves a video by its file path, or nil if absent
func (s *Store) GetVideoByPath(path string) (*Video, error) {
	row := s.db.QueryRow("SELECT "+videoColumns+" FROM recorded_videos WHERE file_path = ?", path)
	v, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return v, nil
}

// InsertVideoTx inserts a video within an open transaction and sets its ID
func InsertVideoTx(tx *sql.Tx, v *Video) error {
	cmJSON, err := json.Marshal(v.CMSections)
	if err != nil {
		return fmt.Errorf("failed to encode cm_sections: %w", err)
	}
	if v.CMSections == nil {
		cmJSON = []byte("[]")
	}

	result, err := tx.Exec(`
		INSERT INTO recorded_videos (
			program_id, file_path, file_hash, file_size,
			recording_start_time, recording_end_time, duration,
			container_format, video_codec,
			video_resolution_width, video_resolution_height,
			primary_audio_codec, primary_audio_channel, primary_audio_sampling_rate,
			secondary_audio_codec, secondary_audio_channel, secondary_audio_sampling_rate,
			cm_sections
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ProgramID, v.FilePath, v.FileHash, v.FileSize,
		nullTime(v.RecordingStartTime), nullTime(v.RecordingEndTime), v.Duration,
		nullString(v.ContainerFormat), nullString(v.VideoCodec),
		nullInt(v.VideoResolutionWidth), nullInt(v.VideoResolutionHeight),
		nullString(v.PrimaryAudioCodec), nullString(v.PrimaryAudioChannel),
		nullInt(v.PrimaryAudioSamplingRate),
		nullString(v.SecondaryAudioCodec), nullString(v.SecondaryAudioChannel),
		nullInt(v.SecondaryAudioSamplingRate),
		string(cmJSON))
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get video ID: %w", err)
	}
	v.ID = id
	return nil
}

// GetAllVideosTx retrieves every video within an open transaction.
// The result is fully materialized before returning so callers can issue
// further statements on the same transaction while iterating.
func GetAllVideosTx(tx *sql.Tx) ([]*Video, error) {
	rows, err := tx.Query("SELECT " + videoColumns + " FROM recorded_videos ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// GetAllVideos retrieves every video in the catalog
func (s *Store) GetAllVideos() ([]*Video, error) {
	rows, err := s.db.Query("SELECT " + videoColumns + " FROM recorded_videos ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// GetRecentVideos retrieves the most recently added videos, newest first
func (s *Store) GetRecentVideos(limit int) ([]*Video, error) {
	rows, err := s.db.Query("SELECT "+videoColumns+" FROM recorded_videos ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CountVideos returns the number of video rows
func (s *Store) CountVideos() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM recorded_videos").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// TotalVideoSize returns the summed size in bytes of all recordings
func (s *Store) TotalVideoSize() (int64, error) {
	var total int64
	err := s.db.QueryRow("SELECT COALESCE(SUM(file_size), 0) FROM recorded_videos").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum video sizes: %w", err)
	}
	return total, nil
}

// TotalVideoDuration returns the summed duration in seconds of all recordings
func (s *Store) TotalVideoDuration() (float64, error) {
	var total float64
	err := s.db.QueryRow("SELECT COALESCE(SUM(duration), 0) FROM recorded_videos").Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum video durations: %w", err)
	}
	return total, nil
}
