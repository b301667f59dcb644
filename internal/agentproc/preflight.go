package agentproc

import (
	"fmt"
	"os/exec"

	"github.com/ralphctl/ralphctl/internal/config"
)

// Preflight checks that the binary a loop's agent kind needs is on PATH
// before the orchestrator starts spawning stories against it.
func Preflight(kind config.AgentKind) error {
	exe, ok := executables[kind]
	if !ok {
		return fmt.Errorf("agentproc: unknown agent kind %q", kind)
	}
	if _, err := exec.LookPath(exe); err != nil {
		return fmt.Errorf("agentproc: %q not found on PATH (required by agent-kind %q)", exe, kind)
	}
	return nil
}
