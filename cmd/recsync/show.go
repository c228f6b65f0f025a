package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/recsync/internal/store"
	"github.com/franz/recsync/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current catalog contents",
	Long: `Display a summary of the recording catalog.

Shows total recording count, channels, disk usage and duration, plus the
most recently cataloged recordings with their technical attributes.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntP("recent", "n", 20, "number of recent recordings to list")
}

func runShow(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")
	recent, _ := cmd.Flags().GetInt("recent")

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	videos, err := db.CountVideos()
	if err != nil {
		return fmt.Errorf("failed to count recordings: %w", err)
	}

	if videos == 0 {
		util.WarnLog("Catalog is empty. Run 'recsync sync' first.")
		return nil
	}

	channels, err := db.CountChannels()
	if err != nil {
		return fmt.Errorf("failed to count channels: %w", err)
	}
	totalSize, err := db.TotalVideoSize()
	if err != nil {
		return fmt.Errorf("failed to sum sizes: %w", err)
	}
	totalDuration, err := db.TotalVideoDuration()
	if err != nil {
		return fmt.Errorf("failed to sum durations: %w", err)
	}

	util.InfoLog("=== Recording Catalog ===")
	util.InfoLog("Database: %s", dbPath)
	util.InfoLog("Recordings: %s", humanize.Comma(int64(videos)))
	util.InfoLog("Channels: %d", channels)
	util.InfoLog("Total size: %s", humanize.Bytes(uint64(totalSize)))
	util.InfoLog("Total duration: %s", formatDuration(totalDuration))

	list, err := db.GetRecentVideos(recent)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	util.InfoLog("")
	util.InfoLog("Most recent recordings:")
	for _, v := range list {
		resolution := ""
		if v.VideoResolutionWidth > 0 {
			resolution = fmt.Sprintf(" %dx%d", v.VideoResolutionWidth, v.VideoResolutionHeight)
		}
		util.InfoLog("  %s  [%s %s%s, %s, %s]",
			filepath.Base(v.FilePath),
			v.ContainerFormat, v.VideoCodec, resolution,
			formatDuration(v.Duration),
			humanize.Bytes(uint64(v.FileSize)))
	}

	return nil
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
