package report

import (
	"time"

	"github.com/franz/recsync/internal/util"
)

// Summary aggregates the outcome of one reconciliation run
type Summary struct {
	Directories int
	Duration    time.Duration

	Added     int64
	Updated   int64
	Deleted   int64
	Unchanged int64

	SkippedTooSmall    int64
	SkippedUnparseable int64
	Failed             int64

	Retries            int64
	AbortedDirectories int64
}

// Log renders the summary through the leveled logger
func (s *Summary) Log() {
	util.SuccessLog("=== Sync Summary ===")
	util.InfoLog("Directories: %d, total time: %v", s.Directories, s.Duration.Round(time.Millisecond))
	util.InfoLog("  Added: %d, updated: %d, deleted: %d, unchanged: %d",
		s.Added, s.Updated, s.Deleted, s.Unchanged)

	if s.SkippedTooSmall > 0 {
		util.WarnLog("  Skipped (too small): %d", s.SkippedTooSmall)
	}
	if s.SkippedUnparseable > 0 {
		util.WarnLog("  Skipped (unparseable): %d", s.SkippedUnparseable)
	}
	if s.Failed > 0 {
		util.WarnLog("  Failed: %d", s.Failed)
	}
	if s.Retries > 0 {
		util.InfoLog("  Commit retries: %d", s.Retries)
	}
	if s.AbortedDirectories > 0 {
		util.ErrorLog("  Aborted directories: %d (catalog unchanged for those, will converge next run)",
			s.AbortedDirectories)
	}
}
