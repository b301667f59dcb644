// Package workflow implements the phase machine and project-context
// container of spec.md §3 (C3): a Workflow moves through Discovery,
// Research, Requirements, Planning, and Export, tracking a status for
// each phase independently while exposing one "current phase" cursor.
package workflow

import (
	"fmt"
	"time"

	"github.com/ralphctl/ralphctl/internal/graph"
	"github.com/ralphctl/ralphctl/internal/requirement"
)

// Phase is one stage of the discovery-to-export pipeline.
type Phase string

const (
	PhaseDiscovery    Phase = "discovery"
	PhaseResearch     Phase = "research"
	PhaseRequirements Phase = "requirements"
	PhasePlanning     Phase = "planning"
	PhaseExport       Phase = "export"
)

// phaseOrder fixes the only legal forward sequence.
var phaseOrder = []Phase{PhaseDiscovery, PhaseResearch, PhaseRequirements, PhasePlanning, PhaseExport}

// PhaseStatus is the per-phase lifecycle state.
type PhaseStatus string

const (
	StatusNotStarted PhaseStatus = "not_started"
	StatusInProgress PhaseStatus = "in_progress"
	StatusComplete   PhaseStatus = "complete"
	StatusSkipped    PhaseStatus = "skipped"
)

// ProjectContext captures the what/why/who/done of a project alongside
// its constraints and explicit non-goals.
type ProjectContext struct {
	What      string   `json:"what"`
	Why       string   `json:"why"`
	Who       string   `json:"who"`
	Done      string   `json:"done"`
	Constraints []string `json:"constraints,omitempty"`
	NonGoals    []string `json:"nonGoals,omitempty"`
}

// SpecState is a placeholder snapshot of a rendered spec document,
// distinct from the requirement map: current/desired track drift
// between what was exported and what research/requirements propose.
type SpecState struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExecutionMode selects how the orchestrator will run this workflow's stories.
type ExecutionMode string

const (
	ExecutionSequential ExecutionMode = "sequential"
	ExecutionParallel   ExecutionMode = "parallel"
)

// ResearchAgentStatus tracks one research sub-agent's progress within the Research phase.
type ResearchAgentStatus struct {
	Name      string      `json:"name"`
	Status    PhaseStatus `json:"status"`
	Summary   string      `json:"summary,omitempty"`
}

// Workflow is the top-level phase machine + project-context container.
type Workflow struct {
	ID            string                 `json:"id"`
	ProjectPath   string                 `json:"projectPath"`
	CurrentPhase  Phase                  `json:"currentPhase"`
	PhaseStatus   map[Phase]PhaseStatus  `json:"phaseStatus"`
	Context       ProjectContext         `json:"context"`
	CurrentSpec   *SpecState             `json:"currentSpec,omitempty"`
	DesiredSpec   *SpecState             `json:"desiredSpec,omitempty"`
	ResearchAgents []ResearchAgentStatus `json:"researchAgents,omitempty"`
	ExecutionMode ExecutionMode          `json:"executionMode"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	Complete      bool                   `json:"complete"`
	Error         string                 `json:"error,omitempty"`

	Requirements *requirement.Store `json:"-"`
	Graph        *graph.Graph       `json:"-"`
}

// New creates a Workflow in Discovery with every downstream phase
// NotStarted and Discovery InProgress, per spec.md's stated lifecycle.
func New(id, projectPath string, now time.Time) *Workflow {
	w := &Workflow{
		ID:            id,
		ProjectPath:   projectPath,
		CurrentPhase:  PhaseDiscovery,
		ExecutionMode: ExecutionParallel,
		CreatedAt:     now,
		UpdatedAt:     now,
		PhaseStatus:   make(map[Phase]PhaseStatus, len(phaseOrder)),
		Requirements:  requirement.NewStore(),
		Graph:         graph.New(),
	}
	for _, p := range phaseOrder {
		w.PhaseStatus[p] = StatusNotStarted
	}
	w.PhaseStatus[PhaseDiscovery] = StatusInProgress
	return w
}

func indexOf(p Phase) int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Advance completes the current phase and starts the next one,
// updating both status-map entries atomically. Exporting completes the workflow.
func (w *Workflow) Advance(now time.Time) error {
	idx := indexOf(w.CurrentPhase)
	if idx < 0 {
		return fmt.Errorf("workflow: unknown current phase %q", w.CurrentPhase)
	}
	if idx == len(phaseOrder)-1 {
		w.PhaseStatus[w.CurrentPhase] = StatusComplete
		w.Complete = true
		w.UpdatedAt = now
		return nil
	}
	next := phaseOrder[idx+1]
	w.PhaseStatus[w.CurrentPhase] = StatusComplete
	w.PhaseStatus[next] = StatusInProgress
	w.CurrentPhase = next
	w.UpdatedAt = now
	if next == PhaseExport {
		// Export is entered InProgress; completion still requires an
		// explicit Advance or Export call once the export itself has run.
	}
	return nil
}

// Rewind moves back to the previous phase, reopening it as InProgress
// and resetting the phase being left behind to NotStarted.
func (w *Workflow) Rewind(now time.Time) error {
	idx := indexOf(w.CurrentPhase)
	if idx <= 0 {
		return fmt.Errorf("workflow: cannot rewind before %q", PhaseDiscovery)
	}
	prev := phaseOrder[idx-1]
	w.PhaseStatus[w.CurrentPhase] = StatusNotStarted
	w.PhaseStatus[prev] = StatusInProgress
	w.CurrentPhase = prev
	w.Complete = false
	w.UpdatedAt = now
	return nil
}

// Skip marks the current phase Skipped and advances to the next one as InProgress.
func (w *Workflow) Skip(now time.Time) error {
	idx := indexOf(w.CurrentPhase)
	if idx < 0 {
		return fmt.Errorf("workflow: unknown current phase %q", w.CurrentPhase)
	}
	if idx == len(phaseOrder)-1 {
		return fmt.Errorf("workflow: cannot skip the final phase %q", PhaseExport)
	}
	next := phaseOrder[idx+1]
	w.PhaseStatus[w.CurrentPhase] = StatusSkipped
	w.PhaseStatus[next] = StatusInProgress
	w.CurrentPhase = next
	w.UpdatedAt = now
	return nil
}

// Export finalizes the workflow: Export's status becomes Complete and
// the workflow-level completion flag is set.
func (w *Workflow) Export(now time.Time) error {
	if w.CurrentPhase != PhaseExport {
		return fmt.Errorf("workflow: export called outside the export phase (current: %q)", w.CurrentPhase)
	}
	w.PhaseStatus[PhaseExport] = StatusComplete
	w.Complete = true
	w.UpdatedAt = now
	return nil
}

// SetError records a surfaced error without altering phase status.
func (w *Workflow) SetError(err error, now time.Time) {
	if err == nil {
		w.Error = ""
	} else {
		w.Error = err.Error()
	}
	w.UpdatedAt = now
}
