// Package snapshot implements the Execution Snapshot store of spec.md
// §3/§5: the orchestrator mirrors its loop state into this
// separately-locked store after every transition so external readers
// never contend with the hot loop.
package snapshot

import (
	"sync"
	"time"

	"github.com/ralphctl/ralphctl/internal/store"
)

// LoopStateKind is the tag of the loop-state sum type.
type LoopStateKind string

const (
	StateIdle      LoopStateKind = "idle"
	StateRunning   LoopStateKind = "running"
	StateRetrying  LoopStateKind = "retrying"
	StateCompleted LoopStateKind = "completed"
	StateCancelled LoopStateKind = "cancelled"
	StateFailed    LoopStateKind = "failed"
)

// LoopState is the tagged loop-state value; only the fields relevant
// to Kind are meaningful.
type LoopState struct {
	Kind            LoopStateKind `json:"kind"`
	Iteration       int           `json:"iteration,omitempty"`
	TotalIterations int           `json:"totalIterations,omitempty"`
	Reason          string        `json:"reason,omitempty"`
}

// Metrics are the cumulative counters carried on every snapshot.
type Metrics struct {
	TotalIterations   int           `json:"totalIterations"`
	TotalDuration     time.Duration `json:"totalDuration"`
	TotalCost         float64       `json:"totalCost"`
	StoriesCompleted  int           `json:"storiesCompleted"`
	StoriesRemaining  int           `json:"storiesRemaining"`
}

// Snapshot is the externally-readable projection of one execution's state.
type Snapshot struct {
	ExecutionID     string    `json:"executionId"`
	State           LoopState `json:"state"`
	Metrics         Metrics   `json:"metrics"`
	CurrentAgentID  string    `json:"currentAgentId,omitempty"`
	WorktreePath    string    `json:"worktreePath,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Store is a separately-locked mirror of live executions' snapshots.
// In-memory lookups never take the orchestrator's lock; the file-store
// mirror makes a snapshot survive the external process' own restart.
type Store struct {
	mu   sync.RWMutex
	live map[string]*Snapshot
	fs   *store.Store
}

// New returns an empty snapshot store backed by fs for durable persistence.
func New(fs *store.Store) *Store {
	return &Store{live: make(map[string]*Snapshot), fs: fs}
}

// Put records the latest snapshot for an execution, in memory and on disk.
func (s *Store) Put(snap *Snapshot) error {
	cp := *snap
	s.mu.Lock()
	s.live[snap.ExecutionID] = &cp
	s.mu.Unlock()
	return store.WriteJSON(s.fs.SnapshotPath(snap.ExecutionID), snap)
}

// Get returns the in-memory snapshot for id, falling back to the file
// store if no in-memory copy exists (spec.md §6.2's stated fallback).
func (s *Store) Get(id string) (*Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.live[id]
	s.mu.RUnlock()
	if ok {
		cp := *snap
		return &cp, nil
	}
	var fromDisk Snapshot
	if err := store.ReadJSON(s.fs.SnapshotPath(id), &fromDisk); err != nil {
		return nil, err
	}
	return &fromDisk, nil
}

// ListLive returns every execution id currently held in memory.
func (s *Store) ListLive() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.live))
	for id := range s.live {
		out = append(out, id)
	}
	return out
}

// Forget drops the in-memory copy for id (the file on disk is left for
// post-mortem inspection).
func (s *Store) Forget(id string) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
}

// IsStale reports whether a snapshot in Running or Retrying state has
// gone untouched past threshold — the "stale session" scan of spec.md §4.5.
func IsStale(snap *Snapshot, threshold time.Duration, now time.Time) bool {
	if snap.State.Kind != StateRunning && snap.State.Kind != StateRetrying {
		return false
	}
	return now.Sub(snap.UpdatedAt) > threshold
}
