package scaffold

import "github.com/ralphctl/ralphctl/internal/docs"

// buildInitPrompt constructs the full prompt for AI-powered init. name is the
// project name (used as the PRD filename stem); projectContext is the
// rendered output of contextgather.Gather(...).Render().
func buildInitPrompt(name, projectContext string) string {
	return initPromptPrefix + docs.SchemaReference() + initPromptMiddle(name) + projectContext + initPromptSuffix(name)
}

const initPromptPrefix = `You are bootstrapping a ralphctl-managed project. ralphctl runs an
autonomous coding loop that dispatches one AI agent per requirement
against a dependency graph, until everything passes or a fatal stop
condition is hit.

Your job: analyze the project context below and generate a tailored
loop config plus an initial PRD (Product Requirements Document) that
describes the work this project still needs.

## ralphctl Schema Reference

`

func initPromptMiddle(name string) string {
	return `

## Example Config

` + "```" + `yaml file=.ralph-ui/config.yaml
project-path: .
prd-name: ` + name + `
agent-kind: claude
model: sonnet
max-parallel: 3
max-iterations: 200
max-cost: 25.00
execution-mode: parallel

retry:
  max-attempts: 3

merge:
  push-on-merge: false
  ai-resolve: true
` + "```" + `

## Example PRD

` + "```" + `markdown file=.ralph-ui/prds/` + name + `.md
---
execution_mode: parallel
---

# ` + name + `

## Problem Statement

What problem this project solves and for whom.

## Target Users

Who uses this and why.

## Success Criteria

How you know the V1 requirements are done.

## Constraints

- Constraints on tech stack, timeline, or approach.

## Non-Goals

- Explicitly out of scope for this PRD.

## V1 Requirements (Must Have)

### CORE-01 - Short title

Longer description of what this requirement covers.

**User Story:** As a <user> I want <capability> so that <benefit>.

- [ ] First acceptance criterion
- [ ] Second acceptance criterion

## V2 Requirements (Nice to Have)

### DATA-01 - Short title

...
` + "```" + `

## Project Context

`
}

func initPromptSuffix(name string) string {
	return `

## Instructions

Based on the project context above, generate:

1. A ` + "`.ralph-ui/config.yaml`" + ` tailored to this project (prd-name: ` + name + `,
   a sensible agent-kind/model, max-parallel appropriate to the scope of
   work you find, and a merge policy).

2. A ` + "`.ralph-ui/prds/" + name + ".md`" + ` PRD document:
   - Infer the Problem Statement, Target Users, Success Criteria,
     Constraints, and Non-Goals from the project's existing code,
     README, and git history.
   - List concrete V1 requirements for the highest-value gaps you find
     (missing tests, unfinished features noted in TODOs or issues,
     structural cleanup the project clearly needs). Prefix each
     requirement id with its category: CORE, UI, DATA, INT, SEC, PERF,
     TEST, DOC, or OTHER.
   - Every V1 requirement needs at least one checkbox acceptance
     criterion.
   - Use **Dependencies:** lines to order requirements that build on
     each other.
   - If the project is empty or new, write requirements for its
     likely first milestone instead of inventing unrelated scope.

## Output Format

Produce ONLY fenced code blocks with ` + "`file=`" + ` annotations. No explanation
or text outside the code blocks. Each block specifies its path relative
to the project root, and all paths MUST start with ` + "`.ralph-ui/`" + `:

` + "```" + `yaml file=.ralph-ui/config.yaml
<config content>
` + "```" + `

` + "```" + `markdown file=.ralph-ui/prds/` + name + `.md
<PRD content>
` + "```" + `
`
}

const retryFeedback = `

IMPORTANT: Your previous attempt failed with this error: %v

Try again. Output ONLY fenced code blocks with file= annotations. One
must be .ralph-ui/config.yaml and one must be a .ralph-ui/prds/*.md PRD
following the section format and requirement heading format shown
above exactly.`
