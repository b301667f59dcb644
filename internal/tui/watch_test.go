package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
)

type fakeSnapshotter struct {
	snap *snapshot.Snapshot
	err  error
}

func (f fakeSnapshotter) Get(string) (*snapshot.Snapshot, error) {
	return f.snap, f.err
}

func TestUpdate_RefreshMsgPopulatesStateAndReschedulesWhileRunning(t *testing.T) {
	snap := &snapshot.Snapshot{
		ExecutionID: "exec-1",
		State:       snapshot.LoopState{Kind: snapshot.StateRunning, Iteration: 2, TotalIterations: 10},
		Metrics:     snapshot.Metrics{TotalCost: 1.5, StoriesCompleted: 1, StoriesRemaining: 3},
	}
	m := New(fakeSnapshotter{snap: snap}, "exec-1", nil)
	updated, cmd := m.Update(refreshMsg{snap: snap})
	model := updated.(Model)
	if model.snap.State.Kind != snapshot.StateRunning {
		t.Fatalf("expected running state, got %q", model.snap.State.Kind)
	}
	if cmd == nil {
		t.Fatal("expected a reschedule command while the execution is still running")
	}
}

func TestUpdate_TerminalStateStopsRescheduling(t *testing.T) {
	snap := &snapshot.Snapshot{ExecutionID: "exec-1", State: snapshot.LoopState{Kind: snapshot.StateCompleted}}
	m := New(fakeSnapshotter{snap: snap}, "exec-1", nil)
	updated, cmd := m.Update(refreshMsg{snap: snap})
	model := updated.(Model)
	if !isTerminal(model.snap.State.Kind) {
		t.Fatal("expected terminal state")
	}
	if cmd != nil {
		t.Fatal("expected no further polling once the execution has reached a terminal state")
	}
}

func TestUpdate_ErrorIsSurfacedWithoutClobberingPriorSnapshot(t *testing.T) {
	prior := &snapshot.Snapshot{ExecutionID: "exec-1", State: snapshot.LoopState{Kind: snapshot.StateRunning}}
	m := New(fakeSnapshotter{err: errors.New("disk error")}, "exec-1", nil)
	seeded, _ := m.Update(refreshMsg{snap: prior})
	updated, _ := seeded.(Model).Update(refreshMsg{err: errors.New("disk error")})
	model := updated.(Model)
	if model.snap != prior {
		t.Fatalf("expected prior snapshot kept after a failed refresh, got %+v", model.snap)
	}
	if model.err == nil {
		t.Fatal("expected error to be recorded")
	}
	if !strings.Contains(model.View(), "error reading snapshot") {
		t.Fatalf("expected view to surface the error, got %q", model.View())
	}
}

func TestUpdate_QuitKeyStopsTheProgram(t *testing.T) {
	m := New(fakeSnapshotter{}, "exec-1", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected ctrl+c to produce a quit command")
	}
}

func TestView_RendersRequirementRows(t *testing.T) {
	snap := &snapshot.Snapshot{ExecutionID: "exec-1", State: snapshot.LoopState{Kind: snapshot.StateRunning}}
	reqs := []*requirement.Requirement{
		{ID: "CORE-01", Title: "Do the thing", Status: requirement.StatusDone},
	}
	m := New(fakeSnapshotter{snap: snap}, "exec-1", func() []*requirement.Requirement { return reqs })
	updated, _ := m.Update(refreshMsg{snap: snap, reqs: reqs})
	model := updated.(Model)
	view := model.View()
	if !strings.Contains(view, "CORE-01") || !strings.Contains(view, "Do the thing") {
		t.Fatalf("expected requirement row in view, got %q", view)
	}
}

func TestPoll_ReturnsRefreshMsgFromSnapshotter(t *testing.T) {
	snap := &snapshot.Snapshot{ExecutionID: "exec-1", State: snapshot.LoopState{Kind: snapshot.StateIdle}}
	m := New(fakeSnapshotter{snap: snap}, "exec-1", nil)
	msg := m.poll()()
	refreshed, ok := msg.(refreshMsg)
	if !ok {
		t.Fatalf("expected refreshMsg, got %T", msg)
	}
	if refreshed.snap.ExecutionID != "exec-1" {
		t.Fatalf("expected execution id to round-trip, got %q", refreshed.snap.ExecutionID)
	}
}

func TestSchedule_FiresAfterRefreshInterval(t *testing.T) {
	m := New(fakeSnapshotter{}, "exec-1", nil)
	start := time.Now()
	cmd := m.schedule()
	msg := cmd()
	if time.Since(start) < refreshInterval {
		t.Fatal("expected schedule to block for at least the refresh interval")
	}
	if _, ok := msg.(refreshMsg); !ok {
		t.Fatalf("expected refreshMsg from scheduled tick, got %T", msg)
	}
}
