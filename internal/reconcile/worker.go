package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/recsync/internal/meta"
	"github.com/franz/recsync/internal/report"
	"github.com/franz/recsync/internal/scan"
	"github.com/franz/recsync/internal/store"
	"github.com/franz/recsync/internal/util"
)

// worker reconciles the catalog with exactly one watched directory.
// Each worker opens its own database connection: a handle shared with the
// orchestrator is not valid across the worker boundary, and the connection
// is released on every exit path.
type worker struct {
	dir     string
	allDirs []string
	dbPath  string

	analyzer meta.Analyzer
	walker   *scan.Walker
	events   *report.EventLogger
	stats    *Stats

	attempts  int
	retryWait time.Duration

	store *store.Store
}

func newWorker(dir string, o *Orchestrator) *worker {
	return &worker{
		dir:       dir,
		allDirs:   o.directories,
		dbPath:    o.dbPath,
		analyzer:  o.analyzer,
		walker:    scan.NewWalker(),
		events:    o.events,
		stats:     &o.stats,
		attempts:  defaultCommitAttempts,
		retryWait: defaultCommitWait,
	}
}

// run walks the directory, queues writes for new and changed recordings, and
// commits the batch. Per-file failures are contained here: they skip the file
// and never abort the walk.
func (w *worker) run(ctx context.Context) error {
	st, err := store.Open(w.dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer st.Close()
	w.store = st

	q := &queue{}
	seen := make(map[string]bool)

	err = w.walker.Walk(ctx, w.dir, func(path string) error {
		// Seen before fingerprinting: a file that is too small or
		// unparseable today must not cause deletion of a prior good entry
		seen[path] = true
		w.stats.Found.Add(1)

		hash, err := meta.Fingerprint(path)
		if errors.Is(err, meta.ErrTooSmall) {
			util.WarnLog("%s: File size is too small. ignored.", path)
			w.events.LogSkip(path, "too_small")
			w.stats.TooSmall.Add(1)
			return nil
		}
		if err != nil {
			util.ErrorLog("%s: Failed to fingerprint. ignored. (%v)", path, err)
			w.events.LogError(path, err)
			w.stats.Failed.Add(1)
			return nil
		}

		current, err := st.GetVideoByPath(path)
		if err != nil {
			return err
		}
		if current != nil && current.FileHash == hash {
			w.stats.Unchanged.Add(1)
			return nil
		}

		// Extraction may itself read the catalog, so it runs here, outside
		// the commit transaction
		analysis, err := w.analyzer.Analyze(ctx, path)
		if errors.Is(err, meta.ErrUnparseable) {
			util.WarnLog("%s: Failed to analyze metadata. ignored.", path)
			w.events.LogSkip(path, "unparseable")
			w.stats.Unparseable.Add(1)
			return nil
		}
		if err != nil {
			util.ErrorLog("%s: Unexpected error occurred while analyzing metadata. ignored. (%v)", path, err)
			w.events.LogError(path, err)
			w.stats.Failed.Add(1)
			return nil
		}

		analysis.Video.FilePath = path
		analysis.Video.FileHash = hash
		q.add(&pendingWrite{
			replaces: current,
			video:    analysis.Video,
			program:  analysis.Program,
			channel:  analysis.Channel,
		})

		if current == nil {
			util.InfoLog("Add Recorded: %s", filepath.Base(path))
			w.events.LogAdd(path)
			w.stats.Added.Add(1)
		} else {
			util.InfoLog("Update Recorded: %s", filepath.Base(path))
			w.events.LogUpdate(path)
			w.stats.Updated.Add(1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", w.dir, err)
	}

	util.DebugLog("%s: %d queued writes, %d files seen", w.dir, q.len(), len(seen))

	if err := w.commit(q, seen); err != nil {
		return fmt.Errorf("commit %s: %w", w.dir, err)
	}
	return nil
}
