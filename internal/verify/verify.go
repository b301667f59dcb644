// Package verify implements Requirements Quality & Verification
// (spec.md §4.7): a read-only pass over the requirement store and a
// roadmap that surfaces coverage gaps before Planning can advance to
// Export, plus a running history that diffs issues between iterations.
package verify

import (
	"fmt"
	"strings"

	"github.com/ralphctl/ralphctl/internal/requirement"
)

// Severity ranks an Issue. Only Critical and High block verification.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

// Issue codes spec.md §4.7 names explicitly.
const (
	CodeUnscopedRequirements = "UNSCOPED_REQUIREMENTS"
	CodeV1NotInRoadmap       = "V1_NOT_IN_ROADMAP"
	CodeOrphanedDependency   = "ORPHANED_DEPENDENCY"
)

// Warning codes spec.md §4.7 names explicitly.
const (
	WarnNonV1InRoadmap     = "NON_V1_IN_ROADMAP"
	WarnEmptyPhase         = "EMPTY_PHASE"
	WarnNoAcceptance       = "NO_ACCEPTANCE_CRITERIA"
)

// Issue is a blocking (Critical/High) or advisory (Medium/Low) finding.
type Issue struct {
	Code                string   `json:"code"`
	Severity            Severity `json:"severity"`
	Message             string   `json:"message"`
	RelatedRequirements []string `json:"relatedRequirements"`
	Suggestion          string   `json:"suggestion,omitempty"`
}

// Key identifies an issue for history diffing: spec.md's `code:related_ids`.
func (i Issue) Key() string {
	return fmt.Sprintf("%s:%s", i.Code, strings.Join(i.RelatedRequirements, ","))
}

// Warning is always non-blocking.
type Warning struct {
	Code                string   `json:"code"`
	Message             string   `json:"message"`
	RelatedRequirements []string `json:"relatedRequirements"`
}

// Stats summarizes the requirement set a Result was computed from.
type Stats struct {
	TotalRequirements     int `json:"totalRequirements"`
	V1Count               int `json:"v1Count"`
	V2Count               int `json:"v2Count"`
	OutOfScopeCount       int `json:"outOfScopeCount"`
	UnscopedCount         int `json:"unscopedCount"`
	InRoadmapCount        int `json:"inRoadmapCount"`
	NotInRoadmapCount     int `json:"notInRoadmapCount"`
	WithDependenciesCount int `json:"withDependenciesCount"`
	OrphanedDependencies  int `json:"orphanedDependencies"`
}

// Result is spec.md's `VerificationResult`.
type Result struct {
	Passed             bool      `json:"passed"`
	CoveragePercentage int       `json:"coveragePercentage"`
	Issues             []Issue   `json:"issues"`
	Warnings           []Warning `json:"warnings"`
	Stats              Stats     `json:"stats"`
}

// RoadmapPhase groups a set of requirement ids into one delivery phase.
type RoadmapPhase struct {
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	RequirementIDs []string `json:"requirementIds"`
}

// Roadmap is the Planning-phase grouping verification checks against.
type Roadmap struct {
	Phases []RoadmapPhase `json:"phases"`
}

func (r Roadmap) requirementIDs() map[string]bool {
	set := make(map[string]bool)
	for _, p := range r.Phases {
		for _, id := range p.RequirementIDs {
			set[id] = true
		}
	}
	return set
}

// Verify runs every check spec.md §4.7 names against reqs and roadmap.
func Verify(reqs []*requirement.Requirement, roadmap Roadmap) Result {
	var issues []Issue
	var warnings []Warning
	var stats Stats

	stats.TotalRequirements = len(reqs)
	v1IDs := make(map[string]bool)

	var unscoped []string
	for _, r := range reqs {
		switch r.Scope {
		case requirement.ScopeV1:
			stats.V1Count++
			v1IDs[r.ID] = true
		case requirement.ScopeV2:
			stats.V2Count++
		case requirement.ScopeOutOfScope:
			stats.OutOfScopeCount++
		default:
			stats.UnscopedCount++
			unscoped = append(unscoped, r.ID)
		}
	}

	roadmapIDs := roadmap.requirementIDs()
	stats.InRoadmapCount = len(roadmapIDs)

	if len(unscoped) > 0 {
		issues = append(issues, Issue{
			Code: CodeUnscopedRequirements, Severity: High,
			Message:             fmt.Sprintf("%d requirements have not been scoped", len(unscoped)),
			RelatedRequirements: unscoped,
			Suggestion:          "Review and assign scope (v1/v2/out-of-scope) to all requirements",
		})
	}

	var missingFromRoadmap []string
	for id := range v1IDs {
		if !roadmapIDs[id] {
			missingFromRoadmap = append(missingFromRoadmap, id)
		}
	}
	if len(missingFromRoadmap) > 0 {
		issues = append(issues, Issue{
			Code: CodeV1NotInRoadmap, Severity: Critical,
			Message:             fmt.Sprintf("%d v1 requirements are not included in the roadmap", len(missingFromRoadmap)),
			RelatedRequirements: missingFromRoadmap,
			Suggestion:          "Add these requirements to roadmap phases",
		})
	}

	var notV1InRoadmap []string
	for id := range roadmapIDs {
		if !v1IDs[id] {
			notV1InRoadmap = append(notV1InRoadmap, id)
		}
	}
	if len(notV1InRoadmap) > 0 {
		warnings = append(warnings, Warning{
			Code:                WarnNonV1InRoadmap,
			Message:             fmt.Sprintf("%d requirements in roadmap are not marked as v1", len(notV1InRoadmap)),
			RelatedRequirements: notV1InRoadmap,
		})
	}

	allIDs := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		allIDs[r.ID] = true
	}
	for _, r := range reqs {
		if len(r.DependsOn) > 0 {
			stats.WithDependenciesCount++
		}
		for _, dep := range r.DependsOn {
			if allIDs[dep] {
				continue
			}
			stats.OrphanedDependencies++
			issues = append(issues, Issue{
				Code: CodeOrphanedDependency, Severity: Medium,
				Message:             fmt.Sprintf("Requirement %s depends on %s which does not exist", r.ID, dep),
				RelatedRequirements: []string{r.ID},
				Suggestion:          fmt.Sprintf("Create requirement %s or remove the dependency", dep),
			})
		}
	}

	for _, p := range roadmap.Phases {
		if len(p.RequirementIDs) == 0 {
			warnings = append(warnings, Warning{
				Code:    WarnEmptyPhase,
				Message: fmt.Sprintf("Phase %d has no requirements", p.Number),
			})
		}
	}

	var withoutAcceptance []string
	for _, r := range reqs {
		if r.Scope == requirement.ScopeV1 && len(r.AcceptanceCriteria) == 0 {
			withoutAcceptance = append(withoutAcceptance, r.ID)
		}
	}
	if len(withoutAcceptance) > 0 {
		warnings = append(warnings, Warning{
			Code:                WarnNoAcceptance,
			Message:             fmt.Sprintf("%d v1 requirements have no acceptance criteria", len(withoutAcceptance)),
			RelatedRequirements: withoutAcceptance,
		})
	}

	coverage := 100
	if stats.TotalRequirements > 0 {
		scoped := stats.TotalRequirements - stats.UnscopedCount
		coverage = scoped * 100 / stats.TotalRequirements
	}
	if stats.V1Count > stats.InRoadmapCount {
		stats.NotInRoadmapCount = stats.V1Count - stats.InRoadmapCount
	}

	passed := true
	for _, i := range issues {
		if i.Severity == Critical || i.Severity == High {
			passed = false
			break
		}
	}

	return Result{
		Passed: passed, CoveragePercentage: coverage,
		Issues: issues, Warnings: warnings, Stats: stats,
	}
}

// ToMarkdown renders a Result for the exported Planning→Export artifact.
func ToMarkdown(result Result) string {
	var b strings.Builder
	b.WriteString("# Verification Results\n\n")
	if result.Passed {
		b.WriteString("**Status:** PASSED\n\n")
	} else {
		b.WriteString("**Status:** FAILED\n\n")
	}
	fmt.Fprintf(&b, "**Coverage:** %d%%\n\n", result.CoveragePercentage)

	b.WriteString("## Statistics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Requirements | %d |\n", result.Stats.TotalRequirements)
	fmt.Fprintf(&b, "| V1 Scope | %d |\n", result.Stats.V1Count)
	fmt.Fprintf(&b, "| V2 Scope | %d |\n", result.Stats.V2Count)
	fmt.Fprintf(&b, "| Out of Scope | %d |\n", result.Stats.OutOfScopeCount)
	fmt.Fprintf(&b, "| Unscoped | %d |\n", result.Stats.UnscopedCount)
	fmt.Fprintf(&b, "| In Roadmap | %d |\n\n", result.Stats.InRoadmapCount)

	if len(result.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, i := range result.Issues {
			fmt.Fprintf(&b, "### [%s] %s\n\n", i.Code, i.Message)
			if len(i.RelatedRequirements) > 0 {
				fmt.Fprintf(&b, "**Affected:** %s\n\n", strings.Join(i.RelatedRequirements, ", "))
			}
			if i.Suggestion != "" {
				fmt.Fprintf(&b, "**Suggestion:** %s\n\n", i.Suggestion)
			}
		}
	}

	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "### [%s] %s\n\n", w.Code, w.Message)
			if len(w.RelatedRequirements) > 0 {
				fmt.Fprintf(&b, "**Affected:** %s\n\n", strings.Join(w.RelatedRequirements, ", "))
			}
		}
	}

	return b.String()
}
