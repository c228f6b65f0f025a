package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/recsync/internal/meta"
	"github.com/franz/recsync/internal/reconcile"
	"github.com/franz/recsync/internal/report"
	"github.com/franz/recsync/internal/store"
	"github.com/franz/recsync/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the catalog with the recording directories",
	Long: `Walk every configured recording directory and reconcile the catalog.

For each directory, added and changed recordings are fingerprinted, analyzed
and written to the catalog; recordings that vanished from disk are removed.
Directories are processed in parallel, each with its own database connection.

If no directories are configured, every program in the catalog is deleted:
no watched directories means no valid recordings.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringSliceP("directories", "d", nil, "recording directories (overrides config)")
	viper.BindPFlag("directories", syncCmd.Flags().Lookup("directories"))
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dbPath := viper.GetString("db")
	verbose := viper.GetBool("verbose")
	quiet := viper.GetBool("quiet")

	util.SetVerbose(verbose)
	util.SetQuiet(quiet)

	directories := viper.GetStringSlice("directories")
	for i, dir := range directories {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("invalid directory %q: %w", dir, err)
		}
		directories[i] = abs
	}

	if len(directories) == 0 {
		util.WarnLog("No recording directories configured - the whole catalog will be emptied")
	}

	if !meta.CheckFFprobeAvailable() {
		util.WarnLog("ffprobe not found in PATH - new recordings cannot be analyzed")
		util.WarnLog("Install ffmpeg: https://ffmpeg.org/")
	}

	logLevel := report.LevelInfo
	if quiet {
		logLevel = report.LevelWarning
	} else if verbose {
		logLevel = report.LevelDebug
	}

	events, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		events = report.NullLogger()
	}
	defer events.Close()

	if events.Path() != "" {
		util.InfoLog("Event log: %s", events.Path())
	}

	util.InfoLog("Catalog database: %s", dbPath)
	for _, dir := range directories {
		util.InfoLog("Recording directory: %s", dir)
	}

	orch := reconcile.New(&reconcile.Config{
		DBPath:      dbPath,
		Directories: directories,
		Events:      events,
	})

	// Progress ticker, bar only when attached to a terminal
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Syncing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	stats := orch.Stats()
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				found := stats.Found.Load()
				if found == 0 {
					continue
				}
				added := stats.Added.Load()
				updated := stats.Updated.Load()
				unchanged := stats.Unchanged.Load()

				if bar != nil {
					bar.Describe(fmt.Sprintf("Syncing | %d found | %d new | %d updated | %d unchanged",
						found, added, updated, unchanged))
					bar.Set64(found)
				} else {
					util.InfoLog("Progress: %d files found (new: %d, updated: %d, unchanged: %d)",
						found, added, updated, unchanged)
				}
			}
		}
	}()

	start := time.Now()
	runErr := orch.Run(ctx)

	cancelProgress()
	if bar != nil {
		bar.Finish()
	}

	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}

	summary := stats.Summary(len(directories), time.Since(start))
	util.InfoLog("")
	summary.Log()

	// Current catalog state, read on a fresh connection
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	programs, _ := db.CountPrograms()
	channels, _ := db.CountChannels()
	util.InfoLog("")
	util.InfoLog("Catalog now holds %d recordings across %d channels", programs, channels)

	return nil
}
