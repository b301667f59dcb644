package merge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ralphctl/ralphctl/internal/vcs"
)

// ClaudeResolver resolves a merge conflict by shelling out to the claude
// binary with the 3-way content and asking for the resolved file back,
// the same direct-subprocess style internal/doctor and internal/scaffold
// use rather than an SDK.
type ClaudeResolver struct {
	Model   string
	Timeout time.Duration
}

const resolvePrompt = `Resolve this git merge conflict. Output ONLY the final resolved file
content, nothing else — no explanation, no markdown fences.

File: %s

--- base (common ancestor) ---
%s

--- ours ---
%s

--- theirs ---
%s
`

// Resolve implements Resolver.
func (r ClaudeResolver) Resolve(ctx context.Context, conflict vcs.ConflictInfo) (string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model := r.Model
	if model == "" {
		model = "sonnet"
	}

	prompt := fmt.Sprintf(resolvePrompt, conflict.Path, conflict.Base, conflict.Ours, conflict.Theirs)

	cmd := exec.CommandContext(ctx, "claude", "-p", prompt, "--model", model)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("claude conflict resolver: %w", err)
	}

	resolved := strings.TrimSpace(stdout.String())
	if resolved == "" {
		return "", fmt.Errorf("claude conflict resolver returned empty content for %s", conflict.Path)
	}
	return resolved, nil
}
