// Package scaffold implements `ralphctl init`: bootstraps a project's
// .ralph-ui/ tree and has an AI draft its initial loop config and PRD,
// the way the teacher's scaffold drafted a workflow config.yaml and
// phase prompts — reground on config.yaml + PRD markdown instead of
// config.yaml + phase prompt files.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ralphctl/ralphctl/internal/config"
	"github.com/ralphctl/ralphctl/internal/contextgather"
	"github.com/ralphctl/ralphctl/internal/fileblocks"
	"github.com/ralphctl/ralphctl/internal/prd"
	"github.com/ralphctl/ralphctl/internal/ux"
)

const configRelPath = ".ralph-ui/config.yaml"

// Init creates a new .ralph-ui/ tree with an AI-generated loop config
// and PRD for targetDir.
func Init(ctx context.Context, targetDir string) error {
	configPath := filepath.Join(targetDir, configRelPath)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists in %s", configRelPath, targetDir)
	}

	return initWithAI(ctx, targetDir)
}

// initWithAI gathers project context, calls claude with retries, and writes
// the generated config and PRD. Falls back to a default template if every
// attempt fails.
func initWithAI(ctx context.Context, targetDir string) error {
	fmt.Println(ux.Dim("\n  Analyzing project..."))

	pc, err := contextgather.Gather(targetDir)
	if err != nil {
		return fmt.Errorf("gathering context: %w", err)
	}

	name := filepath.Base(targetDir)
	prompt := buildInitPrompt(name, pc.Render())

	const maxAttempts = 3
	var blocks []fileblocks.FileBlock
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt == 1 {
			fmt.Println(ux.Dim("  Drafting config and PRD..."))
		} else {
			fmt.Println(ux.Yellow(fmt.Sprintf("  ↺ Retrying (%d/%d): %v", attempt, maxAttempts, lastErr)))
		}

		currentPrompt := prompt
		if attempt > 1 {
			currentPrompt = prompt + fmt.Sprintf(retryFeedback, lastErr)
		}

		blocks, lastErr = generateProject(ctx, name, currentPrompt)
		if lastErr == nil {
			break
		}
	}

	if lastErr != nil {
		fmt.Println(ux.Yellow(fmt.Sprintf("\n  ⚠ AI generation failed after %d attempts: %v", maxAttempts, lastErr)))
		fmt.Println(ux.Dim("  Using default template..."))
		return writeFallbackConfig(targetDir, name)
	}

	written := writeBlocks(targetDir, blocks)

	gitignorePath := filepath.Join(targetDir, ".ralph-ui", ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("iterations/\nagents/\n"), 0644); err != nil {
		return fmt.Errorf("writing .ralph-ui/.gitignore: %w", err)
	}
	written = append(written, ".ralph-ui/.gitignore")

	printSuccess("AI-generated", written)

	if cfg, err := config.Load(filepath.Join(targetDir, configRelPath)); err == nil {
		fmt.Printf("\n  Loop: %s\n", ux.Bold(fmt.Sprintf("%s/%s agent, max-parallel %d", cfg.AgentKind, cfg.Model, cfg.MaxParallel)))
	}

	fmt.Printf("\n  Next: %s\n\n", ux.Cyan(fmt.Sprintf("ralphctl run --prd %s --dry-run", name)))
	return nil
}

// generateProject calls claude, parses the output, and validates the generated
// config and PRD in a temp directory. Returns the validated file blocks or an error.
func generateProject(ctx context.Context, name, prompt string) ([]fileblocks.FileBlock, error) {
	output, err := runClaudeCapture(ctx, prompt)
	if err != nil {
		return nil, err
	}

	blocks := fileblocks.Parse(output)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no file blocks in output")
	}

	hasConfig, hasPRD := false, false
	prdPath := fmt.Sprintf(".ralph-ui/prds/%s.md", name)
	for _, b := range blocks {
		if b.Path == configRelPath {
			hasConfig = true
		}
		if b.Path == prdPath {
			hasPRD = true
		}
	}
	if !hasConfig {
		return nil, fmt.Errorf("output missing %s", configRelPath)
	}
	if !hasPRD {
		return nil, fmt.Errorf("output missing %s", prdPath)
	}

	tmpDir, err := os.MkdirTemp("", "ralphctl-init-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	for _, b := range blocks {
		if !strings.HasPrefix(b.Path, ".ralph-ui/") {
			continue
		}
		fullPath := filepath.Join(tmpDir, b.Path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return nil, fmt.Errorf("creating temp dir for %s: %w", b.Path, err)
		}
		if err := os.WriteFile(fullPath, []byte(b.Content), 0644); err != nil {
			return nil, fmt.Errorf("writing temp %s: %w", b.Path, err)
		}
	}

	if _, err := config.Load(filepath.Join(tmpDir, configRelPath)); err != nil {
		return nil, fmt.Errorf("generated config is invalid: %w", err)
	}
	prdData, err := os.ReadFile(filepath.Join(tmpDir, prdPath))
	if err != nil {
		return nil, fmt.Errorf("reading generated PRD: %w", err)
	}
	if _, err := prd.Parse(prdData); err != nil {
		return nil, fmt.Errorf("generated PRD is invalid: %w", err)
	}

	return blocks, nil
}

// writeBlocks writes validated file blocks to the target directory.
func writeBlocks(targetDir string, blocks []fileblocks.FileBlock) []string {
	var written []string
	for _, b := range blocks {
		if !strings.HasPrefix(b.Path, ".ralph-ui/") {
			continue
		}
		fullPath := filepath.Join(targetDir, b.Path)
		os.MkdirAll(filepath.Dir(fullPath), 0755)
		os.WriteFile(fullPath, []byte(b.Content), 0644)
		written = append(written, b.Path)
	}
	return written
}

// printSuccess prints the initialization success message and file list.
func printSuccess(source string, written []string) {
	fmt.Println(ux.Bold(ux.Green(fmt.Sprintf("\n  ✓ Initialized .ralph-ui/ (%s)\n", source))))
	fmt.Println("  Created:")
	for _, path := range written {
		fmt.Println(ux.Cyan("    " + path))
	}
}

// runClaudeCapture invokes claude -p with the given prompt and returns stdout.
func runClaudeCapture(ctx context.Context, prompt string) (string, error) {
	cmd := exec.CommandContext(ctx, "claude", "-p", prompt, "--model", "opus", "--effort", "high")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	cmd.Env = filteredEnv()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}
	return stdout.String(), nil
}

// filteredEnv returns the current environment with CLAUDECODE stripped.
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
