package config

import "fmt"

var validAgentKinds = map[AgentKind]bool{
	AgentClaude: true,
	AgentCodex:  true,
	AgentAider:  true,
}

var validModes = map[ExecutionMode]bool{
	ModeParallel:   true,
	ModeSequential: true,
}

// Validate checks a RalphLoopConfig for internal consistency. Call
// after defaults() has filled zero-valued fields.
func Validate(cfg *RalphLoopConfig) error {
	if cfg.ProjectPath == "" {
		return fmt.Errorf("config: 'project-path' is required")
	}
	if cfg.PRDName == "" {
		return fmt.Errorf("config: 'prd-name' is required")
	}
	if !validAgentKinds[cfg.AgentKind] {
		return fmt.Errorf("config: unknown agent-kind %q", cfg.AgentKind)
	}
	if !validModes[cfg.ExecutionMode] {
		return fmt.Errorf("config: unknown execution-mode %q", cfg.ExecutionMode)
	}
	if cfg.MaxParallel < 1 {
		return fmt.Errorf("config: max-parallel must be >= 1")
	}
	if cfg.ExecutionMode == ModeSequential && cfg.MaxParallel != 1 {
		return fmt.Errorf("config: sequential mode requires max-parallel == 1")
	}
	if cfg.MaxIterations < 0 {
		return fmt.Errorf("config: max-iterations must be >= 0")
	}
	if cfg.MaxCost < 0 {
		return fmt.Errorf("config: max-cost must be >= 0")
	}
	if cfg.CompletionPromise == "" {
		return fmt.Errorf("config: completion-promise must not be empty")
	}
	if cfg.AgentTimeoutSeconds < 0 {
		return fmt.Errorf("config: agent-timeout-seconds must be >= 0")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max-attempts must be >= 1")
	}
	if cfg.Fallback.Kind != "" && !validAgentKinds[cfg.Fallback.Kind] {
		return fmt.Errorf("config: unknown fallback.kind %q", cfg.Fallback.Kind)
	}
	if cfg.Merge.ResolverTimeoutSeconds < 0 {
		return fmt.Errorf("config: merge.resolver-timeout-seconds must be >= 0")
	}
	return nil
}
