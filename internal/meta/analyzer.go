package meta

import (
	"context"
	"errors"

	"github.com/franz/recsync/internal/store"
)

// ErrUnparseable indicates a recording whose metadata could not be extracted.
// This is an expected outcome for damaged or foreign files: callers skip the
// file with a warning and leave any prior catalog entry untouched.
var ErrUnparseable = errors.New("unparseable recording")

// Analysis is the draft entity triple extracted from one recording file.
// The drafts are not yet persisted; the reconciliation engine owns writes.
type Analysis struct {
	Video   *store.Video
	Program *store.Program
	Channel *store.Channel // nil when the recording carries no service info
}

// Analyzer turns a recording file into catalog drafts.
//
// Implementations must be safe for concurrent use from multiple directory
// workers. Analyze is always invoked outside any open write transaction, so
// implementations are free to read the catalog (e.g. to resolve channel
// identity) without deadlocking the caller's commit.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*Analysis, error)
}
