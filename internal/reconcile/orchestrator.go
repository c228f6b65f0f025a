package reconcile

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/franz/recsync/internal/meta"
	"github.com/franz/recsync/internal/report"
	"github.com/franz/recsync/internal/store"
	"github.com/franz/recsync/internal/util"
)

// Stats holds run counters shared by all workers. Fields are atomic so the
// caller's progress ticker can read them while workers run.
type Stats struct {
	Found     atomic.Int64
	Added     atomic.Int64
	Updated   atomic.Int64
	Deleted   atomic.Int64
	Unchanged atomic.Int64

	TooSmall    atomic.Int64
	Unparseable atomic.Int64
	Failed      atomic.Int64

	Retries atomic.Int64
	Aborted atomic.Int64
}

// Summary snapshots the counters into a report
func (s *Stats) Summary(directories int, duration time.Duration) *report.Summary {
	return &report.Summary{
		Directories:        directories,
		Duration:           duration,
		Added:              s.Added.Load(),
		Updated:            s.Updated.Load(),
		Deleted:            s.Deleted.Load(),
		Unchanged:          s.Unchanged.Load(),
		SkippedTooSmall:    s.TooSmall.Load(),
		SkippedUnparseable: s.Unparseable.Load(),
		Failed:             s.Failed.Load(),
		Retries:            s.Retries.Load(),
		AbortedDirectories: s.Aborted.Load(),
	}
}

// Orchestrator runs one reconciliation pass over all watched directories
type Orchestrator struct {
	dbPath      string
	directories []string
	analyzer    meta.Analyzer
	events      *report.EventLogger
	stats       Stats
}

// Config holds orchestrator configuration
type Config struct {
	DBPath      string
	Directories []string
	Analyzer    meta.Analyzer       // defaults to FFprobeAnalyzer
	Events      *report.EventLogger // defaults to a null logger
}

// New creates a new Orchestrator
func New(cfg *Config) *Orchestrator {
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = &meta.FFprobeAnalyzer{}
	}
	events := cfg.Events
	if events == nil {
		events = report.NullLogger()
	}

	return &Orchestrator{
		dbPath:      cfg.DBPath,
		directories: cfg.Directories,
		analyzer:    analyzer,
		events:      events,
	}
}

// Stats returns the shared run counters
func (o *Orchestrator) Stats() *Stats {
	return &o.stats
}

// Run launches one worker per watched directory, all in parallel, and waits
// for every worker to finish. A failing directory is logged and abandoned for
// this run without affecting its siblings; the catalog converges on the next
// run. An empty directory set deletes every program in the catalog.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	util.InfoLog("Recorded videos updating...")

	var wg sync.WaitGroup
	for _, dir := range o.directories {
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			// A panicking worker must not take down its siblings
			defer func() {
				if r := recover(); r != nil {
					util.ErrorLog("%s: worker panic: %v\n%s", dir, r, debug.Stack())
					o.events.LogError(dir, fmt.Errorf("worker panic: %v", r))
					o.stats.Aborted.Add(1)
				}
			}()

			if err := newWorker(dir, o).run(ctx); err != nil {
				util.ErrorLog("%s: Failed to save to database. ignored. (%v)", dir, err)
				o.events.LogError(dir, err)
				o.stats.Aborted.Add(1)
			}
		}(dir)
	}
	wg.Wait()

	if len(o.directories) == 0 {
		util.InfoLog("No recorded folders are specified. Delete all recorded videos.")
		st, err := store.Open(o.dbPath)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer st.Close()
		if err := st.DeleteAllPrograms(); err != nil {
			return fmt.Errorf("delete all programs: %w", err)
		}
	}

	util.SuccessLog("Recorded videos update complete. (%v)", time.Since(start).Round(time.Millisecond))
	return nil
}
