package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/prd"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/ux"
	"github.com/ralphctl/ralphctl/internal/workflow"
)

func fallbackConfigYAML(name string) string {
	return fmt.Sprintf(`project-path: .
prd-name: %s
agent-kind: claude
model: sonnet
max-parallel: 1
max-iterations: 100
max-cost: 10.00
execution-mode: sequential

retry:
  max-attempts: 3

merge:
  push-on-merge: false
  ai-resolve: false
`, name)
}

func fallbackPRD(name string) *prd.PRD {
	return &prd.PRD{
		ExecutionMode:    workflow.ExecutionSequential,
		Title:            name,
		ProblemStatement: "Describe the problem this project solves and for whom.",
		TargetUsers:      "Describe who uses this project.",
		SuccessCriteria:  "Define what done looks like for the V1 requirements below.",
		Constraints:      []string{"Fill in any constraints on stack, timeline, or approach."},
		NonGoals:         []string{"Fill in anything explicitly out of scope."},
		V1Requirements: []*requirement.Requirement{
			{
				ID:                 "CORE-01",
				Category:           requirement.CategoryCore,
				Title:              "Describe the first piece of work",
				Description:        "Replace this with a real requirement before running ralphctl.",
				UserStory:          "As a user I want this project to do something useful so that I benefit from it.",
				AcceptanceCriteria: []string{"Replace with a concrete, checkable criterion."},
				Status:             requirement.StatusPending,
			},
		},
	}
}

// writeFallbackConfig writes a minimal default config and PRD when AI generation fails.
func writeFallbackConfig(targetDir, name string) error {
	configPath := filepath.Join(targetDir, configRelPath)
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating .ralph-ui/: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(fallbackConfigYAML(name)), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", configRelPath, err)
	}

	prdContent, err := prd.Render(fallbackPRD(name))
	if err != nil {
		return fmt.Errorf("rendering fallback PRD: %w", err)
	}
	prdRelPath := fmt.Sprintf(".ralph-ui/prds/%s.md", name)
	prdPath := filepath.Join(targetDir, prdRelPath)
	if err := os.MkdirAll(filepath.Dir(prdPath), 0755); err != nil {
		return fmt.Errorf("creating .ralph-ui/prds/: %w", err)
	}
	if err := os.WriteFile(prdPath, []byte(prdContent), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", prdRelPath, err)
	}

	written := []string{configRelPath, prdRelPath}

	gitignorePath := filepath.Join(targetDir, ".ralph-ui", ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("iterations/\nagents/\n"), 0644); err != nil {
		return fmt.Errorf("writing .ralph-ui/.gitignore: %w", err)
	}
	written = append(written, ".ralph-ui/.gitignore")

	printSuccess("default template", written)

	if cfg, err := config.Load(configPath); err == nil {
		fmt.Printf("\n  Loop: %s\n", ux.Bold(fmt.Sprintf("%s/%s agent, max-parallel %d", cfg.AgentKind, cfg.Model, cfg.MaxParallel)))
	}

	fmt.Println(ux.Dim(fmt.Sprintf("\n  Customize .ralph-ui/config.yaml and .ralph-ui/prds/%s.md for your project.", name)))
	fmt.Printf("\n  Next: %s\n\n", ux.Cyan(fmt.Sprintf("ralphctl run --prd %s --dry-run", name)))
	return nil
}
