package prd

import (
	"testing"

	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/workflow"
)

func samplePRD() *PRD {
	return &PRD{
		ExecutionMode:    workflow.ExecutionParallel,
		Title:            "Sample Product",
		ProblemStatement: "Users cannot do the thing.",
		TargetUsers:      "Platform engineers.",
		SuccessCriteria:  "The thing works.",
		Constraints:      []string{"Must run offline", "Go 1.22+"},
		NonGoals:         []string{"Mobile app"},
		V1Requirements: []*requirement.Requirement{
			{
				ID: "CORE-01", Category: requirement.CategoryCore, Title: "Do the thing",
				Description: "Implements the core behavior.", UserStory: "As a user I want the thing.",
				AcceptanceCriteria: []string{"Thing happens", "No errors logged"},
			},
			{
				ID: "UI-01", Category: requirement.CategoryUI, Title: "Show the thing",
				Description: "Renders the result.", DependsOn: []string{"CORE-01"},
			},
		},
		V2Requirements: []*requirement.Requirement{
			{ID: "DATA-01", Category: requirement.CategoryData, Title: "Export the thing", Description: "Nice to have export."},
		},
	}
}

func TestRenderParse_RoundTripsFields(t *testing.T) {
	original := samplePRD()
	md, err := Render(original)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Parse([]byte(md))
	if err != nil {
		t.Fatal(err)
	}

	if got.ExecutionMode != original.ExecutionMode {
		t.Fatalf("execution mode mismatch: %q vs %q", got.ExecutionMode, original.ExecutionMode)
	}
	if got.Title != original.Title {
		t.Fatalf("title mismatch: %q vs %q", got.Title, original.Title)
	}
	if got.ProblemStatement != original.ProblemStatement {
		t.Fatalf("problem statement mismatch: %q vs %q", got.ProblemStatement, original.ProblemStatement)
	}
	if len(got.Constraints) != 2 || got.Constraints[1] != "Go 1.22+" {
		t.Fatalf("constraints mismatch: %+v", got.Constraints)
	}
	if len(got.NonGoals) != 1 || got.NonGoals[0] != "Mobile app" {
		t.Fatalf("non-goals mismatch: %+v", got.NonGoals)
	}
	if len(got.V1Requirements) != 2 {
		t.Fatalf("expected 2 v1 requirements, got %d", len(got.V1Requirements))
	}
	if len(got.V2Requirements) != 1 {
		t.Fatalf("expected 1 v2 requirement, got %d", len(got.V2Requirements))
	}

	core := got.V1Requirements[0]
	if core.ID != "CORE-01" || core.Category != requirement.CategoryCore {
		t.Fatalf("expected CORE-01 category recovered from prefix, got %+v", core)
	}
	if core.UserStory != "As a user I want the thing." {
		t.Fatalf("user story mismatch: %q", core.UserStory)
	}
	if len(core.AcceptanceCriteria) != 2 || core.AcceptanceCriteria[1] != "No errors logged" {
		t.Fatalf("acceptance criteria mismatch: %+v", core.AcceptanceCriteria)
	}

	ui := got.V1Requirements[1]
	if len(ui.DependsOn) != 1 || ui.DependsOn[0] != "CORE-01" {
		t.Fatalf("dependencies mismatch: %+v", ui.DependsOn)
	}

	data := got.V2Requirements[0]
	if data.Category != requirement.CategoryData {
		t.Fatalf("expected data category recovered from DATA prefix, got %q", data.Category)
	}
}

func TestParse_MissingFrontmatterIsTreatedAsWholeBody(t *testing.T) {
	p, err := Parse([]byte("# Title\n\n## Problem Statement\n\ntext\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Title" {
		t.Fatalf("expected title parsed without frontmatter, got %q", p.Title)
	}
}

func TestParse_UnterminatedFrontmatterIsCorruption(t *testing.T) {
	_, err := Parse([]byte("---\nexecution_mode: parallel\n"))
	if err == nil {
		t.Fatal("expected an error for an unterminated frontmatter block")
	}
}
