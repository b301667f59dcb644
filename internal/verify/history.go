package verify

import "time"

// Iteration is one recorded verification pass plus its diff against
// the previous pass, keyed by Issue.Key() (spec.md §4.7).
type Iteration struct {
	Iteration  int       `json:"iteration"`
	Timestamp  time.Time `json:"timestamp"`
	Result     Result    `json:"result"`
	IssuesFixed []string `json:"issuesFixed"`
	NewIssues   []string `json:"newIssues"`
}

// History is the ordered verification run log for one workflow.
type History struct {
	Iterations       []Iteration `json:"iterations"`
	CurrentIteration int         `json:"currentIteration"`
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{}
}

// AddIteration records result as the next iteration, diffing its issue
// keys against the previous iteration's, and returns the recorded entry.
func (h *History) AddIteration(result Result, now time.Time) Iteration {
	previous := make(map[string]bool)
	if len(h.Iterations) > 0 {
		last := h.Iterations[len(h.Iterations)-1]
		for _, i := range last.Result.Issues {
			previous[i.Key()] = true
		}
	}

	current := make(map[string]bool)
	for _, i := range result.Issues {
		current[i.Key()] = true
	}

	var fixed, fresh []string
	for k := range previous {
		if !current[k] {
			fixed = append(fixed, k)
		}
	}
	for k := range current {
		if !previous[k] {
			fresh = append(fresh, k)
		}
	}

	h.CurrentIteration++
	iter := Iteration{
		Iteration: h.CurrentIteration, Timestamp: now, Result: result,
		IssuesFixed: fixed, NewIssues: fresh,
	}
	h.Iterations = append(h.Iterations, iter)
	return iter
}

// Latest returns the most recent iteration, if any.
func (h *History) Latest() (Iteration, bool) {
	if len(h.Iterations) == 0 {
		return Iteration{}, false
	}
	return h.Iterations[len(h.Iterations)-1], true
}

// ImprovementPercentage compares issue counts from the first to the
// latest iteration; ok is false with fewer than two iterations.
func (h *History) ImprovementPercentage() (pct float64, ok bool) {
	if len(h.Iterations) < 2 {
		return 0, false
	}
	first := float64(len(h.Iterations[0].Result.Issues))
	latest := float64(len(h.Iterations[len(h.Iterations)-1].Result.Issues))
	if first == 0 {
		return 0, true
	}
	return (first - latest) / first * 100, true
}

// Summary is a rollup over the whole history.
type Summary struct {
	TotalIterations       int     `json:"totalIterations"`
	TotalIssuesFound      int     `json:"totalIssuesFound"`
	TotalIssuesFixed      int     `json:"totalIssuesFixed"`
	CurrentIssues         int     `json:"currentIssues"`
	ImprovementPercentage float64 `json:"improvementPercentage"`
	HasImprovement        bool    `json:"hasImprovement"`
}

// Summarize rolls the history up into a single Summary.
func (h *History) Summarize() Summary {
	var totalFound, totalFixed int
	for _, it := range h.Iterations {
		totalFound += len(it.Result.Issues)
		totalFixed += len(it.IssuesFixed)
	}
	var currentIssues int
	if latest, ok := h.Latest(); ok {
		currentIssues = len(latest.Result.Issues)
	}
	pct, ok := h.ImprovementPercentage()
	return Summary{
		TotalIterations:       len(h.Iterations),
		TotalIssuesFound:      totalFound,
		TotalIssuesFixed:      totalFixed,
		CurrentIssues:         currentIssues,
		ImprovementPercentage: pct,
		HasImprovement:        ok,
	}
}
