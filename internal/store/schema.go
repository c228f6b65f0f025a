package store

// Schema v1 - Catalog tables for channels, recorded programs and recorded videos.
//
// Deletion of a program and its video is done explicitly in the same
// transaction (see DeleteProgramTx); the ON DELETE CASCADE clause is kept as
// a backstop so a stray manual delete cannot orphan a video row.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Broadcast sources. Channels are shared lookup rows: they may be referenced
-- by many programs and are never deleted as a side effect of reconciliation.
CREATE TABLE IF NOT EXISTS channels (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT,
  network_id INTEGER,
  service_id INTEGER,
  remocon_id INTEGER,
  is_watchable INTEGER NOT NULL DEFAULT 0
);

-- Descriptive metadata for one recorded broadcast. channel_id is a
-- non-owning reference and may be NULL.
CREATE TABLE IF NOT EXISTS recorded_programs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  channel_id TEXT REFERENCES channels(id),
  title TEXT NOT NULL,
  description TEXT,
  start_time DATETIME,
  end_time DATETIME,
  duration REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_programs_channel_id ON recorded_programs(channel_id);

-- One on-disk recording file per program. file_path is the logical identity
-- within the catalog; file_hash is the partial-content fingerprint.
CREATE TABLE IF NOT EXISTS recorded_videos (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  program_id INTEGER NOT NULL UNIQUE REFERENCES recorded_programs(id) ON DELETE CASCADE,
  file_path TEXT NOT NULL UNIQUE,
  file_hash TEXT NOT NULL,
  file_size INTEGER NOT NULL DEFAULT 0,
  recording_start_time DATETIME,
  recording_end_time DATETIME,
  duration REAL NOT NULL DEFAULT 0,
  container_format TEXT,
  video_codec TEXT,
  video_resolution_width INTEGER,
  video_resolution_height INTEGER,
  primary_audio_codec TEXT,
  primary_audio_channel TEXT,
  primary_audio_sampling_rate INTEGER,
  secondary_audio_codec TEXT,
  secondary_audio_channel TEXT,
  secondary_audio_sampling_rate INTEGER,
  cm_sections TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_videos_file_path ON recorded_videos(file_path);
CREATE INDEX IF NOT EXISTS idx_videos_program_id ON recorded_videos(program_id);
`
