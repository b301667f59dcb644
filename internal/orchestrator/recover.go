package orchestrator

import (
	"time"

	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
)

// DefaultStaleThreshold is how long a Running/Retrying snapshot can go
// untouched before it is considered abandoned by a crashed process.
const DefaultStaleThreshold = 10 * time.Minute

// RecoverStale scans every persisted execution snapshot for one left
// in Running or Retrying state past threshold — the case where the
// process hosting that loop died without reaching a terminal state —
// and marks it Failed so a fresh `ralphctl` invocation doesn't treat
// it as still in flight. Returns the ids it recovered.
func RecoverStale(fs *store.Store, snaps *snapshot.Store, threshold time.Duration, now time.Time) ([]string, error) {
	ids, err := fs.ListSnapshotIDs()
	if err != nil {
		return nil, err
	}

	var recovered []string
	for _, id := range ids {
		snap, err := snaps.Get(id)
		if err != nil {
			continue
		}
		if !snapshot.IsStale(snap, threshold, now) {
			continue
		}
		snap.State = snapshot.LoopState{Kind: snapshot.StateFailed, Reason: "recovered: stale session, no process holds it"}
		snap.UpdatedAt = now
		if err := snaps.Put(snap); err != nil {
			return recovered, err
		}
		recovered = append(recovered, id)
	}
	return recovered, nil
}
