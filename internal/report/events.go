package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventAdd    EventType = "add"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
	EventSkip   EventType = "skip"
	EventRetry  EventType = "retry"
	EventCommit EventType = "commit"
	EventError  EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single reconciliation event
type Event struct {
	Timestamp time.Time  `json:"ts"`
	Level     EventLevel `json:"level"`
	Event     EventType  `json:"event"`
	Path      string     `json:"path,omitempty"`
	Directory string     `json:"directory,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Attempt   int        `json:"attempt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// EventLogger writes events to a JSONL file.
// It is shared by all directory workers of a run and safe for concurrent use.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("sync-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// NullLogger returns a logger that discards all events
func NullLogger() *EventLogger {
	return &EventLogger{}
}

// Path returns the path of the event log file, or "" for a null logger
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // null logger
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogAdd logs a newly cataloged recording
func (l *EventLogger) LogAdd(path string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventAdd, Path: path})
}

// LogUpdate logs a replaced recording (fingerprint change)
func (l *EventLogger) LogUpdate(path string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventUpdate, Path: path})
}

// LogDelete logs a recording removed from the catalog
func (l *EventLogger) LogDelete(path string) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventDelete, Path: path})
}

// LogSkip logs a recording that was intentionally ignored
func (l *EventLogger) LogSkip(path string, reason string) error {
	return l.Log(&Event{Level: LevelWarning, Event: EventSkip, Path: path, Reason: reason})
}

// LogRetry logs a commit retry caused by database contention
func (l *EventLogger) LogRetry(directory string, attempt int) error {
	return l.Log(&Event{Level: LevelWarning, Event: EventRetry, Directory: directory, Attempt: attempt})
}

// LogCommit logs a successful directory commit
func (l *EventLogger) LogCommit(directory string, attempt int) error {
	return l.Log(&Event{Level: LevelInfo, Event: EventCommit, Directory: directory, Attempt: attempt})
}

// LogError logs an unexpected per-file or per-directory failure
func (l *EventLogger) LogError(path string, err error) error {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return l.Log(&Event{Level: LevelError, Event: EventError, Path: path, Error: errMsg})
}
