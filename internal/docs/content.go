package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with ralphctl",
		Content: topicQuickstart,
	},
	{
		Name:    "config",
		Title:   "Loop Configuration Reference",
		Summary: "config.yaml schema, fields, and defaults",
		Content: topicConfig,
	},
	{
		Name:    "prds",
		Title:   "PRD Documents",
		Summary: "The PRD markdown format and the requirements it generates",
		Content: topicPRDs,
	},
	{
		Name:    "execution-model",
		Title:   "Execution Model",
		Summary: "Sequential vs parallel orchestration, retries, merge handling",
		Content: topicExecutionModel,
	},
	{
		Name:    "verify",
		Title:   "Requirements Verification",
		Summary: "Coverage checks, severities, and the verification history",
		Content: topicVerify,
	},
	{
		Name:    "store",
		Title:   ".ralph-ui Directory",
		Summary: "Structure of the project's .ralph-ui/ tree and what gets saved",
		Content: topicStore,
	},
}

const topicQuickstart = `Quick Start
===========

1. Initialize a project:

    cd your-project
    ralphctl init

   This creates a .ralph-ui/ directory and an AI-drafted PRD under
   .ralph-ui/prds/.

2. Review and edit the generated PRD. A PRD is a markdown document with
   a fixed set of sections: Problem Statement, Target Users, Success
   Criteria, Constraints, Non-Goals, and V1/V2 Requirements.

3. Start a loop run against the PRD:

    ralphctl run --prd my-project

4. Watch it live:

    ralphctl watch <execution-id>

5. Check status any time:

    ralphctl status

CLI Flags
---------

  ralphctl run --prd NAME              Start a loop run from a PRD
  ralphctl run --prd NAME --sequential Force the sequential orchestrator
  ralphctl resume <execution-id>       Resume a cancelled or failed run
  ralphctl watch <execution-id>        Live TUI over the execution snapshot
  ralphctl status                      Print the current workflow/requirement status
  ralphctl verify                      Run requirements-quality verification
  ralphctl doctor <requirement-id>     AI-assisted diagnosis of a failed story
  ralphctl init                        Scaffold .ralph-ui/ and draft a PRD
  ralphctl docs                        List documentation topics
  ralphctl docs <topic>                Show a documentation topic
`

const topicConfig = `Loop Configuration Reference
=============================

A loop run is driven by a RalphLoopConfig, loaded from YAML.

Top-level fields
----------------

  project-path             string    Project root the loop operates on.
  prd-name                 string    Name of the PRD under .ralph-ui/prds/.
  agent-kind               string    "claude" (default), "codex", or "aider".
  model                    string    Model name passed to the agent executable.
  max-iterations           int       Fatal stop once exceeded.
  max-cost                 float     Fatal stop once cumulative cost exceeds this.
  max-parallel             int       Concurrent agent slots. 1 forces sequential mode.
  completion-promise       string    Sentinel text an agent must emit to signal done.
  agent-timeout-seconds    int       Per-story timeout. Default: 1800.
  base-branch              string    Branch stories merge into. Default: main.
  use-worktree             bool      Accepted but not consulted: every story's agent
                                     runs in its own git worktree regardless.
  execution-mode           string    "parallel" (default) or "sequential".

retry
-----

  max-attempts             int       Per-story retry budget after agent failure. Default: 3.

fallback
--------

  kind                      string    Secondary agent-kind. Validated when set, but the
                                      loop does not switch to it: every attempt uses
                                      agent-kind.

merge
-----

  push-on-merge             bool      Push base branch after a clean merge. Default: off.
  open-pull-request          bool      Open a PR for the story branch after it merges locally.
  remote                    string    Git remote name for push/PR. Default: origin.
  ai-resolve                bool      Enable the AI-assisted conflict resolver.
  resolver-timeout-seconds  int       Per-conflict resolver subprocess timeout. Default: 120.

Example
-------

  project-path: .
  prd-name: checkout-flow
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
`

const topicPRDs = `PRD Documents
=============

A PRD (Product Requirements Document) lives at .ralph-ui/prds/<name>.md
and is the source of truth the requirement graph is built from.

Format
------

  ---
  execution_mode: parallel
  ---

  # <Title>

  ## Problem Statement

  ...

  ## Target Users

  ...

  ## Success Criteria

  ...

  ## Constraints

  - ...

  ## Non-Goals

  - ...

  ## V1 Requirements (Must Have)

  ### CORE-01 - <Title>

  <Description>

  **User Story:** As a ... I want ... so that ...

  - [ ] <Acceptance criterion>
  - [ ] <Acceptance criterion>

  **Dependencies:** CORE-00

  ## V2 Requirements (Nice to Have)

  ### DATA-01 - <Title>

  ...

Requirement IDs
---------------

Each requirement's id prefix names its category: CORE, UI, DATA, INT,
SEC, PERF, TEST, DOC, OTHER. The numeric suffix is assigned by the
requirement store in order and is never reused.

V1 requirements block the roadmap (see the "verify" topic); V2
requirements are scoped but don't gate a successful run.
`

const topicExecutionModel = `Execution Model
===============

ralphctl runs a loop as a tick-driven state machine: Idle -> Running{n}
-> Cancelled | Failed{reason} | Completed.

Each tick
---------

  1. Check for cancellation.
  2. Check max-iterations / max-cost; either breach is a Fatal stop.
  3. Project every requirement to pass/fail; all passing means Completed.
  4. Build the runnable set: not passing, not already active, every
     dependency satisfied.
  5. If nothing is active and nothing is runnable, that's the stuck
     detector: a Fatal stop, since no further progress is possible.
  6. Acquire worktree slots up to availability and spawn an agent per
     runnable story.
  7. Poll active agents for exit.
  8. Route each completion to the merge coordinator.
  9. Emit an updated execution snapshot.

Sequential mode (max-parallel: 1) is the same state machine with a
single slot — there is no separate sequential code path, only a
one-slot worktree pool.

Retries and fallback
---------------------

A failed story is retried up to retry.max-attempts times. Once that
budget is exhausted the story is dropped from the runnable set; every
attempt uses agent-kind, and fallback.kind is not consulted.

Merge handling
--------------

On a clean merge, the requirement is marked done and (per merge policy)
the base branch may be pushed or a pull request opened. On a conflict,
the merge is aborted and recorded on the coordinator's conflict list,
the story's worktree is released back to the pool (its branch stays),
and the conflict counts against retry.max-attempts like any other
failed attempt.

Stale session recovery
-----------------------

The stale-session scan (orchestrator.RecoverStale) marks any persisted
execution snapshot still marked Running or Retrying whose last update
is older than the given threshold (DefaultStaleThreshold, 10 minutes)
as Failed with reason "recovered: stale session, no process holds it"
— its process died without updating state. No ralphctl command runs
this scan; run and resume start without it.
`

const topicVerify = `Requirements Verification
==========================

ralphctl verify runs six checks over the current requirement set and
roadmap:

  UNSCOPED_REQUIREMENTS  High      A requirement has no assigned scope.
  V1_NOT_IN_ROADMAP      Critical  A V1 requirement isn't placed in any
                                   roadmap phase.
  ORPHANED_DEPENDENCY    Medium    A depends-on id doesn't resolve to a
                                   known requirement.
  NON_V1_IN_ROADMAP      warning   A V2/out-of-scope requirement is
                                   scheduled into the roadmap anyway.
  EMPTY_PHASE            warning   A roadmap phase lists no requirements.
  NO_ACCEPTANCE_CRITERIA warning   A V1 requirement has no acceptance
                                   criteria to verify against.

Coverage is scoped-requirement-count / total-requirement-count * 100.
A run passes iff no Critical or High issue was found — Medium issues
and warnings don't block.

Verification history
---------------------

A verification history appends one iteration per recorded result,
diffing issue keys (code:related-ids) against the previous iteration
to compute which issues were fixed and which are new, and reports the
improvement percentage between the first and latest run. ralphctl
verify itself runs a single check; it neither records nor prints a
history.
`

const topicStore = `.ralph-ui Directory
====================

ralphctl stores everything it manages under .ralph-ui/ in the project
root.

Directory Structure
--------------------

  .ralph-ui/
  ├── projects.json          Registered-projects index
  ├── agents/
  │   ├── <agent-id>.json        Agent runtime record
  │   └── <agent-id>.logs.jsonl  Append-only agent log
  ├── workflows/
  │   └── <workflow-id>/
  │       ├── state.json         Workflow phase machine + context
  │       ├── requirements.json  Requirement store snapshot
  │       ├── research/          Named research notes
  │       └── SPEC.md, SUMMARY.md, REQUIREMENTS.md, ROADMAP.md, AGENTS.md
  ├── prds/
  │   └── <name>.md           PRD markdown documents
  └── iterations/
      └── <execution-id>_snapshot.json   Execution snapshot

Atomic writes
-------------

Every JSON write goes through a temp-file-then-rename so a crash
mid-write never leaves a half-written file behind. Logs are append-only
JSONL, one entry per line.

Execution snapshots
--------------------

iterations/<execution-id>_snapshot.json is how ralphctl watch and
ralphctl status observe a running loop without contending for its
in-process lock — the orchestrator writes a new snapshot after every
tick, and readers only ever see a complete one.
`

// SchemaReference returns the combined loop-config and PRD documentation
// suitable for embedding in prompts, e.g. the AI-assisted init prompt.
func SchemaReference() string {
	return topicConfig + "\n\n" + topicPRDs
}
