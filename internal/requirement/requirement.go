// Package requirement implements the Requirement Store (C2): a keyed
// mapping of requirement records, a per-category identifier generator,
// and the scope/status vocabulary of spec.md §3.
package requirement

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Category is the closed enumeration a requirement belongs to.
type Category string

const (
	CategoryCore          Category = "core"
	CategoryUI            Category = "ui"
	CategoryData          Category = "data"
	CategoryIntegration   Category = "integration"
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryTesting       Category = "testing"
	CategoryDocumentation Category = "documentation"
	CategoryOther         Category = "other"
)

// prefixes maps each category to its identifier prefix.
var prefixes = map[Category]string{
	CategoryCore:          "CORE",
	CategoryUI:            "UI",
	CategoryData:          "DATA",
	CategoryIntegration:   "INT",
	CategorySecurity:      "SEC",
	CategoryPerformance:   "PERF",
	CategoryTesting:       "TEST",
	CategoryDocumentation: "DOC",
	CategoryOther:         "OTHER",
}

// CategoryForPrefix reverse-looks-up the Category whose identifier
// prefix matches prefix (case-sensitive, e.g. "CORE" → CategoryCore).
// Used to recover Category from an id when parsing a format, like the
// PRD markdown body, that doesn't carry it as a separate field.
func CategoryForPrefix(prefix string) (Category, bool) {
	for cat, p := range prefixes {
		if p == prefix {
			return cat, true
		}
	}
	return "", false
}

// Scope classifies when a requirement should be built.
type Scope string

const (
	ScopeV1         Scope = "v1"
	ScopeV2         Scope = "v2"
	ScopeOutOfScope Scope = "out_of_scope"
	ScopeUnscoped   Scope = "unscoped"
)

// Status is the requirement's lifecycle state. Pending/Blocked/Ready are
// derived from dependency completion; InProgress/Done are terminal
// inputs set by the orchestrator (spec.md §3 invariant).
type Status string

const (
	StatusPending     Status = "pending"
	StatusBlocked     Status = "blocked"
	StatusReady       Status = "ready"
	StatusInProgress  Status = "in_progress"
	StatusDone        Status = "done"
)

// Requirement is one node of the dependency-aware plan.
type Requirement struct {
	ID                 string   `json:"id"`
	Category           Category `json:"category"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	UserStory          string   `json:"userStory,omitempty"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Scope              Scope    `json:"scope"`
	DependsOn          []string `json:"dependsOn"`
	Effort             string   `json:"effort,omitempty"`
	Priority           *int     `json:"priority,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Status             Status   `json:"status"`
}

// DerivedStatus projects dependency completion onto a status, except
// when the current status is already InProgress or Done — those are
// terminal inputs per spec.md §3's invariant and are never overridden.
func DerivedStatus(current Status, dependsOn []string, done map[string]bool) Status {
	if current == StatusInProgress || current == StatusDone {
		return current
	}
	if len(dependsOn) == 0 {
		return StatusReady
	}
	for _, dep := range dependsOn {
		if !done[dep] {
			return StatusBlocked
		}
	}
	return StatusReady
}

// Store is the keyed mapping of requirement id to record, with a
// per-category counter re-synchronised from the loaded data.
type Store struct {
	byID     map[string]*Requirement
	counters map[Category]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*Requirement),
		counters: make(map[Category]int),
	}
}

// LoadAll replaces the store's contents and re-synchronises every
// category counter so NextID stays monotonic across process restarts:
// for every requirement read, if its parsed numeric suffix exceeds the
// stored counter for that prefix, the counter is bumped to match.
func (s *Store) LoadAll(reqs []*Requirement) {
	s.byID = make(map[string]*Requirement, len(reqs))
	s.counters = make(map[Category]int)
	for _, r := range reqs {
		s.byID[r.ID] = r
		if n, ok := suffixOf(r.ID); ok && n > s.counters[r.Category] {
			s.counters[r.Category] = n
		}
	}
}

// suffixOf extracts the numeric suffix from an identifier like "CORE-07".
func suffixOf(id string) (int, bool) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextID returns the next identifier for cat and reserves it by
// advancing the counter. Format: "<PREFIX>-<2-digit>".
func (s *Store) NextID(cat Category) string {
	s.counters[cat]++
	prefix := prefixes[cat]
	if prefix == "" {
		prefix = strings.ToUpper(string(cat))
	}
	return fmt.Sprintf("%s-%02d", prefix, s.counters[cat])
}

// Add inserts or replaces a requirement, synchronising the category counter.
func (s *Store) Add(r *Requirement) {
	s.byID[r.ID] = r
	if n, ok := suffixOf(r.ID); ok && n > s.counters[r.Category] {
		s.counters[r.Category] = n
	}
}

// Get returns the requirement by id, or (nil, false).
func (s *Store) Get(id string) (*Requirement, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Remove deletes a requirement from the store.
func (s *Store) Remove(id string) {
	delete(s.byID, id)
}

// All returns every requirement, sorted by id.
func (s *Store) All() []*Requirement {
	out := make([]*Requirement, 0, len(s.byID))
	for _, r := range s.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OrphanedDependencies reports, for every requirement, any depends-on
// entry that doesn't resolve to a known requirement (spec.md invariant 1).
func (s *Store) OrphanedDependencies() map[string][]string {
	orphans := make(map[string][]string)
	for _, r := range s.All() {
		for _, dep := range r.DependsOn {
			if _, ok := s.byID[dep]; !ok {
				orphans[r.ID] = append(orphans[r.ID], dep)
			}
		}
	}
	return orphans
}
