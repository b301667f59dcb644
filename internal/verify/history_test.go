package verify

import (
	"testing"
	"time"
)

func TestAddIteration_DiffsIssuesAgainstPrevious(t *testing.T) {
	h := NewHistory()
	now := time.Now()

	first := Result{Issues: []Issue{
		{Code: CodeUnscopedRequirements, RelatedRequirements: []string{"CORE-01"}},
		{Code: CodeOrphanedDependency, RelatedRequirements: []string{"CORE-02"}},
	}}
	h.AddIteration(first, now)

	second := Result{Issues: []Issue{
		{Code: CodeOrphanedDependency, RelatedRequirements: []string{"CORE-02"}},
		{Code: CodeV1NotInRoadmap, RelatedRequirements: []string{"CORE-03"}},
	}}
	iter := h.AddIteration(second, now.Add(time.Minute))

	if len(iter.IssuesFixed) != 1 || iter.IssuesFixed[0] != (Issue{Code: CodeUnscopedRequirements, RelatedRequirements: []string{"CORE-01"}}).Key() {
		t.Fatalf("expected the unscoped issue to be reported fixed, got %+v", iter.IssuesFixed)
	}
	if len(iter.NewIssues) != 1 || iter.NewIssues[0] != (Issue{Code: CodeV1NotInRoadmap, RelatedRequirements: []string{"CORE-03"}}).Key() {
		t.Fatalf("expected the v1-not-in-roadmap issue to be reported new, got %+v", iter.NewIssues)
	}
}

func TestImprovementPercentage_RequiresTwoIterations(t *testing.T) {
	h := NewHistory()
	if _, ok := h.ImprovementPercentage(); ok {
		t.Fatal("expected no improvement percentage with zero iterations")
	}
	h.AddIteration(Result{Issues: []Issue{{Code: "X"}}}, time.Now())
	if _, ok := h.ImprovementPercentage(); ok {
		t.Fatal("expected no improvement percentage with one iteration")
	}
	h.AddIteration(Result{}, time.Now())
	pct, ok := h.ImprovementPercentage()
	if !ok || pct != 100 {
		t.Fatalf("expected 100%% improvement, got %v ok=%v", pct, ok)
	}
}

func TestSummarize_AggregatesAcrossIterations(t *testing.T) {
	h := NewHistory()
	h.AddIteration(Result{Issues: []Issue{{Code: "A"}, {Code: "B"}}}, time.Now())
	h.AddIteration(Result{Issues: []Issue{{Code: "A"}}}, time.Now())

	summary := h.Summarize()
	if summary.TotalIterations != 2 {
		t.Fatalf("expected 2 iterations, got %d", summary.TotalIterations)
	}
	if summary.CurrentIssues != 1 {
		t.Fatalf("expected 1 current issue, got %d", summary.CurrentIssues)
	}
	if summary.TotalIssuesFixed != 1 {
		t.Fatalf("expected 1 fixed issue across history, got %d", summary.TotalIssuesFixed)
	}
}
