package workflow

import (
	"testing"
	"time"
)

func TestNew_StartsInDiscoveryWithDownstreamNotStarted(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	if w.CurrentPhase != PhaseDiscovery {
		t.Fatalf("expected discovery, got %s", w.CurrentPhase)
	}
	if w.PhaseStatus[PhaseDiscovery] != StatusInProgress {
		t.Fatalf("expected discovery in_progress, got %s", w.PhaseStatus[PhaseDiscovery])
	}
	for _, p := range []Phase{PhaseResearch, PhaseRequirements, PhasePlanning, PhaseExport} {
		if w.PhaseStatus[p] != StatusNotStarted {
			t.Fatalf("expected %s not_started, got %s", p, w.PhaseStatus[p])
		}
	}
	if w.Complete {
		t.Fatal("expected new workflow incomplete")
	}
}

func TestAdvance_UpdatesTwoStatusEntriesAtomically(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	if err := w.Advance(now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if w.CurrentPhase != PhaseResearch {
		t.Fatalf("expected research, got %s", w.CurrentPhase)
	}
	if w.PhaseStatus[PhaseDiscovery] != StatusComplete {
		t.Fatalf("expected discovery complete, got %s", w.PhaseStatus[PhaseDiscovery])
	}
	if w.PhaseStatus[PhaseResearch] != StatusInProgress {
		t.Fatalf("expected research in_progress, got %s", w.PhaseStatus[PhaseResearch])
	}
}

func TestAdvance_ThroughToExportCompletesWorkflow(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	for range []Phase{PhaseDiscovery, PhaseResearch, PhaseRequirements, PhasePlanning} {
		if err := w.Advance(now); err != nil {
			t.Fatal(err)
		}
	}
	if w.CurrentPhase != PhaseExport {
		t.Fatalf("expected export, got %s", w.CurrentPhase)
	}
	if err := w.Export(now); err != nil {
		t.Fatal(err)
	}
	if !w.Complete {
		t.Fatal("expected workflow complete after export")
	}
	if w.PhaseStatus[PhaseExport] != StatusComplete {
		t.Fatalf("expected export complete, got %s", w.PhaseStatus[PhaseExport])
	}
}

func TestExport_RejectedOutsideExportPhase(t *testing.T) {
	w := New("wf-1", "/tmp/proj", time.Unix(0, 0))
	if err := w.Export(time.Unix(0, 0)); err == nil {
		t.Fatal("expected export to be rejected from discovery")
	}
}

func TestRewind_ReopensPreviousPhase(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	_ = w.Advance(now)
	_ = w.Advance(now)
	if w.CurrentPhase != PhaseRequirements {
		t.Fatalf("expected requirements, got %s", w.CurrentPhase)
	}
	if err := w.Rewind(now); err != nil {
		t.Fatal(err)
	}
	if w.CurrentPhase != PhaseResearch {
		t.Fatalf("expected research after rewind, got %s", w.CurrentPhase)
	}
	if w.PhaseStatus[PhaseResearch] != StatusInProgress {
		t.Fatalf("expected research in_progress, got %s", w.PhaseStatus[PhaseResearch])
	}
	if w.PhaseStatus[PhaseRequirements] != StatusNotStarted {
		t.Fatalf("expected requirements reset to not_started, got %s", w.PhaseStatus[PhaseRequirements])
	}
}

func TestRewind_RejectedBeforeDiscovery(t *testing.T) {
	w := New("wf-1", "/tmp/proj", time.Unix(0, 0))
	if err := w.Rewind(time.Unix(0, 0)); err == nil {
		t.Fatal("expected rewind before discovery to fail")
	}
}

func TestSkip_MarksSkippedAndAdvances(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	if err := w.Skip(now); err != nil {
		t.Fatal(err)
	}
	if w.PhaseStatus[PhaseDiscovery] != StatusSkipped {
		t.Fatalf("expected discovery skipped, got %s", w.PhaseStatus[PhaseDiscovery])
	}
	if w.CurrentPhase != PhaseResearch {
		t.Fatalf("expected research, got %s", w.CurrentPhase)
	}
}

func TestSkip_RejectedOnFinalPhase(t *testing.T) {
	now := time.Unix(0, 0)
	w := New("wf-1", "/tmp/proj", now)
	for range []Phase{PhaseDiscovery, PhaseResearch, PhaseRequirements, PhasePlanning} {
		_ = w.Advance(now)
	}
	if err := w.Skip(now); err == nil {
		t.Fatal("expected skip to be rejected on export")
	}
}

func TestSetError_RecordsAndClears(t *testing.T) {
	w := New("wf-1", "/tmp/proj", time.Unix(0, 0))
	w.SetError(errBoom{}, time.Unix(1, 0))
	if w.Error != "boom" {
		t.Fatalf("expected error recorded, got %q", w.Error)
	}
	w.SetError(nil, time.Unix(2, 0))
	if w.Error != "" {
		t.Fatalf("expected error cleared, got %q", w.Error)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
