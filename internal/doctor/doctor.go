// Package doctor gathers failure context for one requirement's failed
// agent run and sends it to an AI assistant for diagnosis, the way the
// teacher's phase-level doctor did for a failed ticket phase — kept the
// same gather/prompt/runClaude shape, reground on the
// requirement/agent-log vocabulary instead of ticket/phase.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/requirement"
	"github.com/ralphctl/ralphctl/internal/snapshot"
	"github.com/ralphctl/ralphctl/internal/store"
	"github.com/ralphctl/ralphctl/internal/ux"
)

const maxLogLines = 200

const diagPrompt = `You are diagnosing a failed ralphctl loop story. Analyze the context below and provide a concise diagnosis.

## Failed Requirement
%s

## Agent Log Output (last %d lines)
%s
%s
Instructions:
1. Identify what went wrong from the log output.
2. Classify this as a LOOP problem (config, retry/fallback policy, merge conflict) or a CODE problem (the story the agent was working on).
3. Suggest specific fixes.
4. Recommend the next command to run:
   - ralphctl resume <execution-id>   (let the loop retry the story)
   - ralphctl run --max-parallel 1    (re-run sequentially for clearer logs)
   - Fix the underlying issue first, then resume

Be direct and concise. Focus on actionable advice.`

// Run gathers failure context for req's last agent run and sends it to
// claude for diagnosis. When snap is not in the Failed state it prints
// a notice and returns nil without running claude.
func Run(ctx context.Context, fs *store.Store, cfg *config.RalphLoopConfig, snap *snapshot.Snapshot, req *requirement.Requirement, agentID string) error {
	if snap.State.Kind != snapshot.StateFailed {
		fmt.Println("No failed run to diagnose.")
		return nil
	}

	reqSummary := gatherRequirement(req)
	log := gatherLog(fs, agentID)
	execSummary := gatherExecution(snap)

	diagText := buildPrompt(reqSummary, log, execSummary)

	fmt.Printf("\n%s\n\n", headerLine(req, snap))

	model := cfg.Model
	if model == "" {
		model = "sonnet"
	}
	if err := runClaude(ctx, diagText, model); err != nil {
		return fmt.Errorf("doctor: running claude: %w", err)
	}

	fmt.Println()
	ux.ResumeHint(snap.ExecutionID)
	return nil
}

func headerLine(req *requirement.Requirement, snap *snapshot.Snapshot) string {
	return fmt.Sprintf("══ Doctor: diagnosing %s (%s), execution %s ══", req.ID, req.Title, snap.ExecutionID)
}

func buildPrompt(reqSummary, log, execSummary string) string {
	var execSection string
	if execSummary != "" {
		execSection = fmt.Sprintf("\n## Execution Context\n%s\n", execSummary)
	}
	return fmt.Sprintf(diagPrompt, reqSummary, maxLogLines, log, execSection)
}

func gatherRequirement(req *requirement.Requirement) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("ID: %s", req.ID))
	parts = append(parts, fmt.Sprintf("Category: %s", req.Category))
	parts = append(parts, fmt.Sprintf("Title: %s", req.Title))
	if req.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", req.Description))
	}
	if len(req.AcceptanceCriteria) > 0 {
		parts = append(parts, fmt.Sprintf("Acceptance criteria: %s", strings.Join(req.AcceptanceCriteria, "; ")))
	}
	if len(req.DependsOn) > 0 {
		parts = append(parts, fmt.Sprintf("Depends on: %s", strings.Join(req.DependsOn, ", ")))
	}
	parts = append(parts, fmt.Sprintf("Status: %s", req.Status))
	return strings.Join(parts, "\n")
}

func gatherLog(fs *store.Store, agentID string) string {
	if agentID == "" {
		return "(no agent id recorded for this attempt)"
	}
	entries, err := store.ReadLog(fs.AgentLogPath(agentID))
	if err != nil || len(entries) == 0 {
		return "(no log entries found)"
	}
	if len(entries) > maxLogLines {
		entries = entries[len(entries)-maxLogLines:]
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
	}
	return b.String()
}

func gatherExecution(snap *snapshot.Snapshot) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Iteration: %d/%d", snap.State.Iteration, snap.State.TotalIterations))
	parts = append(parts, fmt.Sprintf("Reason: %s", snap.State.Reason))
	parts = append(parts, fmt.Sprintf("Total cost so far: $%.2f", snap.Metrics.TotalCost))
	parts = append(parts, fmt.Sprintf("Stories completed/remaining: %d/%d", snap.Metrics.StoriesCompleted, snap.Metrics.StoriesRemaining))
	return strings.Join(parts, "\n")
}

func filteredEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		key := strings.SplitN(e, "=", 2)[0]
		if strings.HasPrefix(key, "CLAUDECODE") {
			continue
		}
		env = append(env, e)
	}
	return env
}

func runClaude(ctx context.Context, prompt, model string) error {
	cmd := exec.CommandContext(ctx, "claude", "-p", prompt, "--model", model)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = filteredEnv()
	return cmd.Run()
}
