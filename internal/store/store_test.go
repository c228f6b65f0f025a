package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertRecording(t *testing.T, s *Store, channelID, title, path, hash string) (programID, videoID int64) {
	t.Helper()
	err := s.Transaction(func(tx *sql.Tx) error {
		if channelID != "" {
			c := &Channel{ID: channelID, Name: "Channel " + channelID, ServiceID: 1}
			if err := InsertChannelTx(tx, c); err != nil {
				return err
			}
		}
		p := &Program{ChannelID: channelID, Title: title, Duration: 1800}
		if err := InsertProgramTx(tx, p); err != nil {
			return err
		}
		v := &Video{
			ProgramID:       p.ID,
			FilePath:        path,
			FileHash:        hash,
			FileSize:        4096,
			Duration:        1800,
			ContainerFormat: "MPEG-TS",
			VideoCodec:      "H.264",
			CMSections:      [][2]float64{{0, 90.5}, {900, 990}},
		}
		if err := InsertVideoTx(tx, v); err != nil {
			return err
		}
		programID = p.ID
		videoID = v.ID
		return nil
	})
	if err != nil {
		t.Fatalf("failed to insert recording: %v", err)
	}
	return programID, videoID
}

func TestStoreOpenAndMigrate(t *testing.T) {
	s := openTestStore(t)

	version, err := s.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}

	tables := []string{"channels", "recorded_programs", "recorded_videos", "schema_version"}
	for _, table := range tables {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestConcurrentOpenOnFreshCatalog(t *testing.T) {
	// All directory workers open the catalog at once; on a brand-new
	// database every one of them races to write the WAL pragma and run the
	// migration, and all of them must come up
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := Open(dbPath)
			if err != nil {
				errs <- err
				return
			}
			s.Close()
			errs <- nil
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent open failed: %v", err)
		}
	}

	s := openExisting(t, dbPath)
	version, err := s.getSchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d after racing opens, got %d", currentSchemaVersion, version)
	}
}

func openExisting(t *testing.T, dbPath string) *Store {
	t.Helper()
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestVideoInsertAndRetrieve(t *testing.T) {
	s := openTestStore(t)

	programID, videoID := insertRecording(t, s, "SID1024", "Evening News", "/rec/news.ts", "aabb")
	if programID == 0 || videoID == 0 {
		t.Fatal("expected non-zero row IDs")
	}

	v, err := s.GetVideoByPath("/rec/news.ts")
	if err != nil {
		t.Fatalf("failed to get video: %v", err)
	}
	if v == nil {
		t.Fatal("expected video to exist")
	}
	if v.FileHash != "aabb" || v.ProgramID != programID {
		t.Errorf("unexpected video row: %+v", v)
	}
	if len(v.CMSections) != 2 || v.CMSections[0] != [2]float64{0, 90.5} {
		t.Errorf("cm_sections did not round-trip: %v", v.CMSections)
	}

	missing, err := s.GetVideoByPath("/rec/none.ts")
	if err != nil {
		t.Fatalf("lookup of missing path errored: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing path")
	}
}

func TestNullableTimes(t *testing.T) {
	s := openTestStore(t)

	start := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)
	err := s.Transaction(func(tx *sql.Tx) error {
		p := &Program{Title: "Late Show", StartTime: &start}
		if err := InsertProgramTx(tx, p); err != nil {
			return err
		}
		return InsertVideoTx(tx, &Video{
			ProgramID: p.ID, FilePath: "/rec/late.ts", FileHash: "cc",
			RecordingStartTime: &start,
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	v, err := s.GetVideoByPath("/rec/late.ts")
	if err != nil {
		t.Fatal(err)
	}
	if v.RecordingStartTime == nil || !v.RecordingStartTime.Equal(start) {
		t.Errorf("recording start time did not round-trip: %v", v.RecordingStartTime)
	}
	if v.RecordingEndTime != nil {
		t.Errorf("expected nil end time, got %v", v.RecordingEndTime)
	}
}

func TestDeleteProgramRemovesVideoKeepsChannel(t *testing.T) {
	s := openTestStore(t)

	programID, _ := insertRecording(t, s, "SID1", "Show A", "/rec/a.ts", "01")
	insertRecording(t, s, "SID1", "Show B", "/rec/b.ts", "02")

	err := s.Transaction(func(tx *sql.Tx) error {
		return DeleteProgramTx(tx, programID)
	})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if v, _ := s.GetVideoByPath("/rec/a.ts"); v != nil {
		t.Error("expected video of deleted program to be gone")
	}
	if v, _ := s.GetVideoByPath("/rec/b.ts"); v == nil {
		t.Error("expected sibling recording to survive")
	}

	channels, err := s.CountChannels()
	if err != nil {
		t.Fatal(err)
	}
	if channels != 1 {
		t.Errorf("expected channel to survive program deletion, count = %d", channels)
	}
}

func TestChannelReuse(t *testing.T) {
	s := openTestStore(t)

	// Same identity inserted twice resolves to a single row
	insertRecording(t, s, "SID7", "Show A", "/rec/a.ts", "01")
	insertRecording(t, s, "SID7", "Show B", "/rec/b.ts", "02")

	channels, err := s.CountChannels()
	if err != nil {
		t.Fatal(err)
	}
	if channels != 1 {
		t.Errorf("expected 1 channel row, got %d", channels)
	}
}

func TestDeleteAllPrograms(t *testing.T) {
	s := openTestStore(t)

	insertRecording(t, s, "SID1", "Show A", "/rec/a.ts", "01")
	insertRecording(t, s, "SID2", "Show B", "/rec/b.ts", "02")

	if err := s.DeleteAllPrograms(); err != nil {
		t.Fatalf("delete all failed: %v", err)
	}

	programs, _ := s.CountPrograms()
	videos, _ := s.CountVideos()
	if programs != 0 || videos != 0 {
		t.Errorf("expected empty catalog, got %d programs, %d videos", programs, videos)
	}

	// Channels are not owned by programs
	channels, _ := s.CountChannels()
	if channels != 2 {
		t.Errorf("expected channels to survive delete-all, count = %d", channels)
	}
}

func TestTotals(t *testing.T) {
	s := openTestStore(t)

	insertRecording(t, s, "", "Show A", "/rec/a.ts", "01")
	insertRecording(t, s, "", "Show B", "/rec/b.ts", "02")

	size, err := s.TotalVideoSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != 8192 {
		t.Errorf("expected total size 8192, got %d", size)
	}

	duration, err := s.TotalVideoDuration()
	if err != nil {
		t.Fatal(err)
	}
	if duration != 3600 {
		t.Errorf("expected total duration 3600, got %f", duration)
	}
}

func TestIsLocked(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("database table is locked"), true},
		{errors.New("UNIQUE constraint failed: recorded_videos.file_path"), false},
		{sql.ErrNoRows, false},
	}

	for _, tt := range tests {
		if got := IsLocked(tt.err); got != tt.expected {
			t.Errorf("IsLocked(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}
