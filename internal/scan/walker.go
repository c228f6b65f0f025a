package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/franz/recsync/internal/util"
)

// RecordingExtensions are the broadcast container types tracked in the catalog
var RecordingExtensions = []string{
	".ts",
	".m2t",
	".m2ts",
	".mts",
}

// sidecarPrefix marks hidden companion files some operating systems drop
// next to real files (e.g. "._foo.ts" on macOS volumes)
const sidecarPrefix = "._"

// Walker discovers candidate recording files in a directory tree.
// Walking is read-only: it never mutates the filesystem and never follows
// symbolic links, so a link cycle or a link back into a watched directory
// cannot double-count a file.
type Walker struct {
	extensions map[string]bool
}

// NewWalker creates a Walker for the default recording extensions
func NewWalker() *Walker {
	extMap := make(map[string]bool)
	for _, ext := range RecordingExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	return &Walker{extensions: extMap}
}

// Walk traverses root and calls fn for each candidate path in walk order.
// Unreadable entries are logged and skipped; the walk continues. An error
// returned by fn aborts the walk.
func (w *Walker) Walk(ctx context.Context, root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			return nil // continue walking
		}

		if d.IsDir() {
			return nil
		}

		// WalkDir reports a symlinked directory as a plain symlink entry and
		// never descends into it; skipping the entry here covers file links too
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if !w.isRecordingFile(path) {
			return nil
		}

		return fn(path)
	})
}

// isRecordingFile checks whether a path is a candidate recording
func (w *Walker) isRecordingFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, sidecarPrefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return w.extensions[ext]
}
