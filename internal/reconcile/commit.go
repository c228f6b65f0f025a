package reconcile

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/recsync/internal/store"
	"github.com/franz/recsync/internal/util"
)

const (
	// SQLite allows a single writer; with several directory workers
	// committing against the same catalog, contention is normal operation,
	// not an edge case. The whole batch retries from scratch.
	defaultCommitAttempts = 10
	defaultCommitWait     = 100 * time.Millisecond
)

// commit applies the queued writes and deletes stale rows in one atomic
// transaction, retrying the complete batch while the database is locked by a
// sibling worker. After exhausting all attempts the batch is abandoned and
// the catalog stays in its pre-run state for this directory.
func (w *worker) commit(q *queue, seen map[string]bool) error {
	var lastErr error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		var deleted []string
		err := w.store.Transaction(func(tx *sql.Tx) error {
			// Writes apply sequentially in walk order; parallel writes into
			// one store only add contention without throughput gain
			for _, pw := range q.writes {
				if err := pw.apply(tx); err != nil {
					return err
				}
			}
			// Deletions happen strictly after all writes, same transaction
			var derr error
			deleted, derr = w.deleteStale(tx, seen)
			return derr
		})
		if err == nil {
			if attempt > 1 {
				util.InfoLog("Retry succeeded.")
				w.stats.Retries.Add(int64(attempt - 1))
			}
			// Deletions are reported only once the transaction has committed;
			// a retried attempt must not repeat them
			for _, path := range deleted {
				util.InfoLog("Delete Recorded: %s", filepath.Base(path))
				w.events.LogDelete(path)
				w.stats.Deleted.Add(1)
			}
			w.events.LogCommit(w.dir, attempt)
			return nil
		}

		if !store.IsLocked(err) {
			return err
		}

		lastErr = err
		remaining := w.attempts - attempt
		util.WarnLog("Database is locked. Retrying... (%d/%d)", remaining, w.attempts)
		w.events.LogRetry(w.dir, attempt)

		if remaining == 0 {
			break
		}
		time.Sleep(w.retryWait)
	}

	return fmt.Errorf("commit abandoned after %d attempts: %w", w.attempts, lastErr)
}

// deleteStale removes catalog rows for recordings that vanished from this
// worker's directory and returns the deleted file paths. Rows under a
// different configured directory belong to the sibling worker scanning it and
// are never touched here, even if that sibling has not run yet.
func (w *worker) deleteStale(tx *sql.Tx, seen map[string]bool) ([]string, error) {
	videos, err := store.GetAllVideosTx(tx)
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, v := range videos {
		if !underDirectory(v.FilePath, w.dir) && underAnyDirectory(v.FilePath, w.allDirs) {
			continue // sibling-owned
		}
		if seen[v.FilePath] {
			continue
		}
		if err := store.DeleteProgramTx(tx, v.ProgramID); err != nil {
			return nil, err
		}
		deleted = append(deleted, v.FilePath)
	}

	return deleted, nil
}

// underDirectory reports whether path lies inside dir
func underDirectory(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// underAnyDirectory reports whether path lies inside any of dirs
func underAnyDirectory(path string, dirs []string) bool {
	for _, dir := range dirs {
		if underDirectory(path, dir) {
			return true
		}
	}
	return false
}
