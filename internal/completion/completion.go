// Package completion implements the Completion Detector (C9): a pure
// substring scan of an agent's captured output against a configured
// sentinel string. Deliberately not a streaming matcher — the
// orchestrator invokes it once per finished agent (spec.md §4.6).
package completion

import "strings"

// DefaultSentinel is used when a RalphLoopConfig leaves CompletionPromise unset.
const DefaultSentinel = "<promise>COMPLETE</promise>"

// Contains reports whether sentinel appears anywhere in haystack.
func Contains(haystack, sentinel string) bool {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return strings.Contains(haystack, sentinel)
}

// Succeeded reports the spec.md §4.2 success condition: exit code zero
// AND the sentinel present in the captured output.
func Succeeded(exitCode int, output, sentinel string) bool {
	return exitCode == 0 && Contains(output, sentinel)
}
