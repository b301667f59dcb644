// Package tui implements `ralphctl watch` (SPEC_FULL.md §3 "Global
// mutable state"): a read-only bubbletea view that polls the Execution
// Snapshot store and the Requirement store on a timer and renders them,
// never touching the orchestrator's own lock. Structure follows the
// teacher's Elm-architecture TUI shape (Model/Update/View, tea.Tick
// polling, lipgloss boxes).
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
)

const refreshInterval = 1 * time.Second

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD68C"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// Snapshotter is the read-only snapshot dependency watch polls; the
// requirement set comes from a separate RequirementLister.
type Snapshotter interface {
	Get(executionID string) (*snapshot.Snapshot, error)
}

// RequirementLister resolves the current requirement set for display
// alongside the execution snapshot.
type RequirementLister func() []*requirement.Requirement

type refreshMsg struct {
	snap *snapshot.Snapshot
	reqs []*requirement.Requirement
	err  error
}

// Model is the bubbletea model for the watch view.
type Model struct {
	snaps       Snapshotter
	executionID string
	listReqs    RequirementLister

	snap    *snapshot.Snapshot
	reqs    []*requirement.Requirement
	err     error
	width   int
	height  int
	started time.Time
}

// New returns a Model polling executionID's snapshot via snaps, with
// listReqs supplying the requirement set to render alongside it.
func New(snaps Snapshotter, executionID string, listReqs RequirementLister) Model {
	return Model{snaps: snaps, executionID: executionID, listReqs: listReqs, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return m.poll()
}

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.snaps.Get(m.executionID)
		if err != nil {
			return refreshMsg{err: err}
		}
		var reqs []*requirement.Requirement
		if m.listReqs != nil {
			reqs = m.listReqs()
		}
		return refreshMsg{snap: snap, reqs: reqs}
	}
}

func (m Model) schedule() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return m.poll()()
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.snap = msg.snap
			m.reqs = msg.reqs
		}
		if m.snap != nil && isTerminal(m.snap.State.Kind) {
			return m, nil
		}
		return m, m.schedule()
	}
	return m, nil
}

func isTerminal(k snapshot.LoopStateKind) bool {
	return k == snapshot.StateCompleted || k == snapshot.StateCancelled || k == snapshot.StateFailed
}

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	header := headerStyle.Render(fmt.Sprintf("ralphctl watch · %s", m.executionID))

	if m.err != nil {
		body := failStyle.Render(fmt.Sprintf("error reading snapshot: %v", m.err))
		return lipgloss.JoinVertical(lipgloss.Left, header, boxStyle.Width(width-4).Render(body))
	}
	if m.snap == nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, dimStyle.Render("waiting for execution snapshot..."))
	}

	state := stateLine(m.snap.State)
	metrics := fmt.Sprintf(
		"iteration %d/%d   cost $%.2f   done %d   remaining %d",
		m.snap.State.Iteration, m.snap.State.TotalIterations,
		m.snap.Metrics.TotalCost, m.snap.Metrics.StoriesCompleted, m.snap.Metrics.StoriesRemaining,
	)
	topBox := boxStyle.Width(width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, state, dimStyle.Render(metrics)))

	var reqLines []string
	for _, r := range m.reqs {
		reqLines = append(reqLines, fmt.Sprintf("%-10s %-10s %s", r.ID, requirementState(r.Status), r.Title))
	}
	reqBox := ""
	if len(reqLines) > 0 {
		reqBox = boxStyle.Width(width - 4).Render(strings.Join(reqLines, "\n"))
	}

	footer := dimStyle.Render(fmt.Sprintf("watching for %s · q to quit", time.Since(m.started).Round(time.Second)))

	sections := []string{header, topBox}
	if reqBox != "" {
		sections = append(sections, reqBox)
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func stateLine(s snapshot.LoopState) string {
	switch s.Kind {
	case snapshot.StateCompleted:
		return doneStyle.Render("state: completed")
	case snapshot.StateRunning:
		return activeStyle.Render("state: running")
	case snapshot.StateRetrying:
		return activeStyle.Render("state: retrying")
	case snapshot.StateCancelled:
		return dimStyle.Render("state: cancelled")
	case snapshot.StateFailed:
		return failStyle.Render(fmt.Sprintf("state: failed (%s)", s.Reason))
	default:
		return dimStyle.Render("state: idle")
	}
}

func requirementState(st requirement.Status) string {
	switch st {
	case requirement.StatusDone:
		return doneStyle.Render("done")
	case requirement.StatusInProgress:
		return activeStyle.Render("active")
	case requirement.StatusReady:
		return "ready"
	case requirement.StatusBlocked:
		return dimStyle.Render("blocked")
	default:
		return dimStyle.Render("pending")
	}
}

// Run starts the bubbletea program for the watch view.
func Run(snaps Snapshotter, executionID string, listReqs RequirementLister) error {
	p := tea.NewProgram(New(snaps, executionID, listReqs))
	_, err := p.Run()
	return err
}
