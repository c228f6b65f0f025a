package reconcile

import (
	"database/sql"
	"fmt"

	"github.com/franz/recsync/internal/store"
)

// pendingWrite is one catalog mutation discovered during a walk. Writes are
// queued instead of applied mid-walk: writing while siblings scan would hold
// the store's write lock across the whole traversal.
type pendingWrite struct {
	// replaces is the existing row for this path when the fingerprint
	// changed; nil for a brand-new recording
	replaces *store.Video

	video   *store.Video
	program *store.Program
	channel *store.Channel
}

// queue accumulates pending writes in walk order for one directory
type queue struct {
	writes []*pendingWrite
}

func (q *queue) add(w *pendingWrite) {
	q.writes = append(q.writes, w)
}

func (q *queue) len() int {
	return len(q.writes)
}

// apply persists one queued write inside tx, in foreign-key order:
// channel, then program, then video. A replaced recording's old program and
// video are deleted first so the new rows get fresh identity.
func (w *pendingWrite) apply(tx *sql.Tx) error {
	if w.channel != nil {
		existing, err := store.GetChannelTx(tx, w.channel.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := store.InsertChannelTx(tx, w.channel); err != nil {
				return err
			}
		}
		w.program.ChannelID = w.channel.ID
	}

	if w.replaces != nil {
		if err := store.DeleteProgramTx(tx, w.replaces.ProgramID); err != nil {
			return err
		}
	}

	if err := store.InsertProgramTx(tx, w.program); err != nil {
		return err
	}

	w.video.ProgramID = w.program.ID
	if err := store.InsertVideoTx(tx, w.video); err != nil {
		return fmt.Errorf("insert video for %s: %w", w.video.FilePath, err)
	}

	return nil
}
