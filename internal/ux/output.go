// Package ux renders the interactive console output for a running
// loop: story headers, completion/failure lines, retry loop-backs, and
// inline tool-use chatter. Ported from the teacher's phase-oriented
// console writer, rebuilt on fatih/color instead of raw ANSI escapes.
package ux

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	dim     = color.New(color.Faint)
	bold    = color.New(color.Bold)
	red     = color.New(color.FgRed)
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	cyan    = color.New(color.FgCyan)
)

// Dim, Bold, Green, Yellow, Cyan, and Red wrap s in the given style.
// Used by callers (e.g. scaffold) that build up a full line before printing
// it, rather than writing their own fatih/color objects.
func Dim(s string) string    { return dim.Sprint(s) }
func Bold(s string) string   { return bold.Sprint(s) }
func Green(s string) string  { return green.Sprint(s) }
func Yellow(s string) string { return yellow.Sprint(s) }
func Cyan(s string) string   { return cyan.Sprint(s) }
func Red(s string) string    { return red.Sprint(s) }

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func prefix() string {
	return dim.Sprintf("[%s]", timestamp())
}

// StoryHeader prints a timestamped header for a story that was just dispatched.
func StoryHeader(id, title string) {
	rule := cyan.Sprint(strings.Repeat("═", 40))
	fmt.Printf("\n%s %s\n", prefix(), rule)
	fmt.Printf("%s  %s\n", prefix(), bold.Sprintf("Story %s: %s", id, title))
	fmt.Printf("%s %s\n", prefix(), rule)
}

// StoryComplete prints a story completion message.
func StoryComplete(storyID string, duration time.Duration) {
	m := int(duration.Minutes())
	sec := int(duration.Seconds()) % 60
	fmt.Printf("%s  %s\n", prefix(), green.Sprintf("✓ Story %s complete (%dm %02ds)", storyID, m, sec))
}

// StoryFail prints a story failure message.
func StoryFail(storyID, errMsg string) {
	fmt.Printf("%s  %s\n", prefix(), red.Sprintf("✗ Story %s failed: %s", storyID, errMsg))
}

// ResumeHint prints a resume command hint for a cancelled or failed execution.
func ResumeHint(executionID string) {
	fmt.Printf("\n%s ralphctl resume %s\n", yellow.Sprint("Resume:"), executionID)
}

// RetryBack prints a retry message when a story is re-dispatched after failure.
func RetryBack(storyID string, attempt, max int) {
	fmt.Printf("%s  %s\n", prefix(), yellow.Sprintf("↺ Story %q failed, retrying (attempt %d/%d)", storyID, attempt, max))
}

// StorySkip prints a story skip message (dependencies unmet, no slot free).
func StorySkip(storyID string) {
	fmt.Printf("%s  %s\n", prefix(), dim.Sprintf("– Story %s waiting (dependencies not yet satisfied)", storyID))
}

// ToolUse prints an inline tool call observed in an agent's output.
func ToolUse(name, input string) {
	summary := input
	if len(summary) > 80 {
		summary = summary[:77] + "..."
	}
	fmt.Printf("  %s %s\n", cyan.Sprintf("⚡ %s", name), summary)
}

// ToolDenied prints a denied tool call.
func ToolDenied(name, input string) {
	summary := input
	if len(summary) > 80 {
		summary = summary[:77] + "..."
	}
	fmt.Printf("  %s %s\n", red.Sprintf("✗ %s (denied)", name), summary)
}

// PermissionPrompt prints a permission-denial header.
func PermissionPrompt(tools []string) {
	fmt.Printf("\n  %s\n", yellow.Sprintf("⚠ Tools denied: %s", strings.Join(tools, ", ")))
}

// Success prints a final all-stories-complete message.
func Success(total int) {
	fmt.Printf("\n%s  %s\n\n", prefix(), bold.Sprint(green.Sprintf("══ All %d stories complete ══", total)))
}
