package ux

import (
	"fmt"

	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/workflow"
)

// RenderStatus prints the full status display for a workflow: its
// current phase, requirement completion broken down by status, and the
// latest execution snapshot if one exists.
func RenderStatus(w *workflow.Workflow, reqs []*requirement.Requirement, snap *snapshot.Snapshot) {
	fmt.Printf("%s  %s\n", bold.Sprint("Workflow:"), w.ID)
	if w.Complete {
		fmt.Printf("%s   %s\n", bold.Sprint("Phase:"), green.Sprint("complete"))
	} else {
		fmt.Printf("%s   %s (%s)\n", bold.Sprint("Phase:"), w.CurrentPhase, w.PhaseStatus[w.CurrentPhase])
	}

	fmt.Printf("\n%s\n", bold.Sprint("Phases:"))
	for _, p := range []workflow.Phase{workflow.PhaseDiscovery, workflow.PhaseResearch, workflow.PhaseRequirements, workflow.PhasePlanning, workflow.PhaseExport} {
		st := w.PhaseStatus[p]
		marker := dim.Sprint("  ")
		if p == w.CurrentPhase && !w.Complete {
			marker = yellow.Sprint("→ ")
		}
		fmt.Printf("  %s%-14s %s\n", marker, p, phaseStatusColor(st))
	}

	done, total := 0, len(reqs)
	for _, r := range reqs {
		if r.Status == requirement.StatusDone {
			done++
		}
	}
	fmt.Printf("\n%s %d/%d done\n", bold.Sprint("Requirements:"), done, total)
	for _, r := range reqs {
		fmt.Printf("  %s  %-10s %-40s %s\n", dim.Sprintf("%-7s", r.ID), r.Scope, r.Title, requirementStatusColor(r.Status))
	}

	if snap == nil {
		return
	}
	fmt.Printf("\n%s\n", bold.Sprint("Execution:"))
	fmt.Printf("  state:     %s\n", loopStateColor(snap.State))
	fmt.Printf("  iteration: %d/%d\n", snap.State.Iteration, snap.State.TotalIterations)
	fmt.Printf("  stories:   %d complete, %d remaining\n", snap.Metrics.StoriesCompleted, snap.Metrics.StoriesRemaining)
	fmt.Printf("  cost:      $%.2f\n", snap.Metrics.TotalCost)
	if snap.State.Kind == snapshot.StateFailed || snap.State.Kind == snapshot.StateCancelled {
		ResumeHint(snap.ExecutionID)
	}
}

func phaseStatusColor(st workflow.PhaseStatus) string {
	switch st {
	case workflow.StatusComplete:
		return green.Sprint("done")
	case workflow.StatusInProgress:
		return yellow.Sprint("in progress")
	case workflow.StatusSkipped:
		return dim.Sprint("skipped")
	default:
		return dim.Sprint("not started")
	}
}

func requirementStatusColor(st requirement.Status) string {
	switch st {
	case requirement.StatusDone:
		return green.Sprint("done")
	case requirement.StatusInProgress:
		return yellow.Sprint("in progress")
	case requirement.StatusReady:
		return cyan.Sprint("ready")
	case requirement.StatusBlocked:
		return dim.Sprint("blocked")
	default:
		return dim.Sprint("pending")
	}
}

func loopStateColor(s snapshot.LoopState) string {
	switch s.Kind {
	case snapshot.StateCompleted:
		return green.Sprint("completed")
	case snapshot.StateRunning:
		return cyan.Sprint("running")
	case snapshot.StateRetrying:
		return yellow.Sprint("retrying")
	case snapshot.StateCancelled:
		return yellow.Sprint("cancelled")
	case snapshot.StateFailed:
		return red.Sprintf("failed: %s", s.Reason)
	default:
		return dim.Sprint("idle")
	}
}
